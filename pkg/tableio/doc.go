// Package tableio reads and writes the flat tables exchanged with the rest of
// the survey pipeline: question masters, dimension definitions, per-labeler
// tag tables, cluster tables and the agreement/spectrum outputs.
//
// CSV is the default format. Paths ending in .parquet are read and written
// with parquet-go instead. Writers create parent directories first and
// return I/O errors unchanged.
package tableio
