package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is a table file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format from the file extension; anything that is
// not .parquet is CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatParquet {
		return ".parquet"
	}
	return ".csv"
}

// ensureParent creates the directory that will hold path.
func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// writeCSV writes header and records to path in one pass.
func writeCSV(path string, header []string, records [][]string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// csvTable is a CSV file read fully into memory with a header index.
type csvTable struct {
	header  []string
	columns map[string]int
	records [][]string
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &csvTable{header: header, columns: make(map[string]int, len(header))}
	for i, name := range header {
		t.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	t.records, err = r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// require checks that every named column exists.
func (t *csvTable) require(path string, names ...string) error {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return fmt.Errorf("%s: missing column %q (have %v)", path, name, t.header)
		}
	}
	return nil
}

func (t *csvTable) has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// get returns the named cell of record, or "" when the column or cell is absent.
func (t *csvTable) get(record []string, name string) string {
	i, ok := t.columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
