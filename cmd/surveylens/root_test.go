package surveylens

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/soundprediction/surveylens/pkg/config"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("TELEMETRY_PARQUET_PATH", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDimensionsCommand(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "dims.csv"),
		"model_name,dim_name,dim_text\n"+
			"gpt,Emotional,Feelings\n"+
			"claude,Behavioral,Habits\n")

	out := execute(t, "dimensions", path)

	var doc map[string][]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, map[string][]string{
		"claude": {"Behavioral: Habits"},
		"gpt":    {"Emotional: Feelings"},
	}, doc)
}

func TestAgreementCommand(t *testing.T) {
	in := t.TempDir()
	writeFile(t, filepath.Join(in, "a.csv"), "qid,dataset,text,dimensions\nq1,d,one,\"['A','B']\"\n")
	writeFile(t, filepath.Join(in, "b.csv"), "qid,dataset,text,dimensions\nq1,d,one,\"['B']\"\n")
	outDir := t.TempDir()

	out := execute(t, "agreement", "--dir", in, "--threshold", "2", "-o", outDir, "--format", "csv")
	assert.Contains(t, out, "Mean pairwise Jaccard: 0.5000")

	records, err := tableio.ReadAgreementTable(filepath.Join(outDir, "cross_labeler_agreement.csv"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"B"}, records[0].ConsensusDimensions)

	spectrum, err := tableio.ReadSpectrumTable(filepath.Join(outDir, "consensus_spectrum.csv"))
	require.NoError(t, err)
	require.Len(t, spectrum, 1)
	assert.Equal(t, [][]string{{"A"}, {"B"}}, spectrum[0].Exact)
}

func TestValidateServerConfig(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		dir     string
		wantErr bool
	}{
		{"valid", 8080, "out", false},
		{"port zero", 0, "out", true},
		{"port too large", 70000, "out", true},
		{"no output dir", 8080, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server: config.ServerConfig{Port: tt.port},
				Output: config.OutputConfig{Dir: tt.dir},
			}
			err := validateServerConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
