package tableio

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/surveylens/pkg/types"
)

// DefaultQuestionsFile is the canonical question master written by the
// loading step.
const DefaultQuestionsFile = "questions_master.parquet"

// LoadQuestions reads a qid,dataset,text table. Values are trimmed, CRLF
// line breaks inside text become LF (CSV reading drops the CR anyway, so
// both formats agree and the text round-trips through cluster tables),
// rows with an empty qid or text are rejected and a repeated qid fails with
// ErrDuplicateKey.
func LoadQuestions(path string) ([]types.Question, error) {
	var questions []types.Question
	switch FormatFromPath(path) {
	case FormatParquet:
		rows, err := parquet.ReadFile[types.Question](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read questions from %s: %w", path, err)
		}
		questions = rows
	default:
		t, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		if err := t.require(path, "qid", "text"); err != nil {
			return nil, err
		}
		questions = make([]types.Question, len(t.records))
		for i, rec := range t.records {
			questions[i] = types.Question{
				QID:     t.get(rec, "qid"),
				Dataset: t.get(rec, "dataset"),
				Text:    t.get(rec, "text"),
			}
		}
	}

	for i := range questions {
		q := &questions[i]
		q.QID = strings.TrimSpace(q.QID)
		q.Dataset = strings.TrimSpace(q.Dataset)
		q.Text = strings.ReplaceAll(strings.TrimSpace(q.Text), "\r\n", "\n")
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
	}
	if _, err := types.IndexQuestions(path, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// WriteQuestions writes questions as CSV or parquet depending on the extension.
func WriteQuestions(path string, questions []types.Question) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	if FormatFromPath(path) == FormatParquet {
		return parquet.WriteFile(path, questions)
	}
	records := make([][]string, len(questions))
	for i, q := range questions {
		records[i] = []string{q.QID, q.Dataset, q.Text}
	}
	return writeCSV(path, []string{"qid", "dataset", "text"}, records)
}
