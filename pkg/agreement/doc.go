// Package agreement compares dimension tags assigned to the same survey
// questions by several independent labelers.
//
// Tag tables are collected in a LabelerTagSets, an ordered map from labeler
// name to a qid-keyed table. The first labeler added defines the question
// universe and its row order. Two views are derived from it:
//
//   - ComputeCrossLabelerAgreement: mean pairwise Jaccard, sorted union and
//     threshold consensus per question.
//   - ComputeConsensusSpectrum: every tag placed in exactly one exact_c
//     bucket, c being the number of distinct labelers that chose it.
//
// CrossValidate checks that the two views describe the same tags.
//
// Conventions: the Jaccard similarity of two empty sets is 1.0, and the mean
// over zero pairs (a single labeler) is 1.0. Each labeler's tags are
// de-duplicated before any counting.
package agreement
