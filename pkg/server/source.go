package server

import (
	"os"
	"path/filepath"

	"github.com/soundprediction/surveylens"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/soundprediction/surveylens/pkg/types"
)

// DirSource reads result tables written by the CLI from one output
// directory. Tables are re-read on every call, so a rerun of the CLI is
// picked up without restarting the server.
type DirSource struct {
	Dir    string
	Format tableio.Format
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string, format tableio.Format) *DirSource {
	if format == "" {
		format = tableio.FormatCSV
	}
	return &DirSource{Dir: dir, Format: format}
}

// Ping reports whether the output directory is readable.
func (s *DirSource) Ping() error {
	_, err := os.ReadDir(s.Dir)
	return err
}

// ClusterRows prefers the full table and falls back to the labeled one.
func (s *DirSource) ClusterRows() ([]types.ClusterRow, error) {
	path := filepath.Join(s.Dir, surveylens.ClusterTableFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join(s.Dir, surveylens.LabeledTableFile)
	}
	rows, _, err := tableio.ReadClusterTable(path)
	return rows, err
}

// Representatives reads the representatives table.
func (s *DirSource) Representatives() ([]types.ClusterRow, error) {
	rows, _, err := tableio.ReadClusterTable(filepath.Join(s.Dir, surveylens.RepresentativesFile))
	return rows, err
}

// Agreement reads the agreement table.
func (s *DirSource) Agreement() ([]types.AgreementRecord, error) {
	return tableio.ReadAgreementTable(filepath.Join(s.Dir, surveylens.AgreementFile+s.Format.Ext()))
}

// Spectrum reads the spectrum table.
func (s *DirSource) Spectrum() ([]types.ConsensusBucketRecord, error) {
	return tableio.ReadSpectrumTable(filepath.Join(s.Dir, surveylens.SpectrumFile+s.Format.Ext()))
}
