// Package types defines the core data types for surveylens.
//
// This package contains the fundamental types shared by the clustering and
// agreement packages:
//   - Question: a survey question keyed by its qid
//   - EmbeddedQuestion: a Question with its unit-normalized embedding
//   - Cluster / ClusterRow: fitted clusters and the joined cluster table
//   - TagRow: one labeler's dimension tags for one question
//   - AgreementRecord / ConsensusBucketRecord: per-question aggregation output
//
// # Validation
//
// Types provide Validate() methods for input validation:
//
//	q := &types.Question{QID: "q1", Dataset: "gss", Text: "How happy are you?"}
//	if err := q.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// # Errors
//
// The error kinds raised by the library (ErrNotFitted, ErrInvalidArgument,
// ErrMissingQuestion, ErrDuplicateKey) live here so every package reports
// them identically. Match them with errors.Is.
package types
