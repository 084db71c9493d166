package agreement

import (
	"strings"

	"github.com/soundprediction/surveylens/pkg/types"
)

type tagTable struct {
	rows  []types.TagRow
	index map[string]int
}

// LabelerTagSets maps labeler names to per-question tag tables, keeping the
// order labelers were added in.
type LabelerTagSets struct {
	order  []string
	tables map[string]*tagTable
}

// NewLabelerTagSets creates an empty set of tag tables.
func NewLabelerTagSets() *LabelerTagSets {
	return &LabelerTagSets{tables: make(map[string]*tagTable)}
}

// Add registers one labeler's table. A repeated labeler or a repeated qid
// within the table fails with ErrDuplicateKey.
func (s *LabelerTagSets) Add(labeler string, rows []types.TagRow) error {
	if strings.TrimSpace(labeler) == "" {
		return types.InvalidArgument("labeler name is empty")
	}
	if _, exists := s.tables[labeler]; exists {
		return types.NewDuplicateKeyError("labelers", labeler)
	}

	table := &tagTable{
		rows:  make([]types.TagRow, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		if _, exists := table.index[row.QID]; exists {
			return types.NewDuplicateKeyError(labeler, row.QID)
		}
		table.index[row.QID] = i
		table.rows[i] = types.TagRow{
			Question:   row.Question,
			Dimensions: append([]string(nil), row.Dimensions...),
		}
	}

	s.order = append(s.order, labeler)
	s.tables[labeler] = table
	return nil
}

// Labelers returns labeler names in insertion order.
func (s *LabelerTagSets) Labelers() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of labelers.
func (s *LabelerTagSets) Len() int {
	return len(s.order)
}

// Universe returns the first labeler's questions in its row order.
func (s *LabelerTagSets) Universe() []types.Question {
	if len(s.order) == 0 {
		return nil
	}
	rows := s.tables[s.order[0]].rows
	out := make([]types.Question, len(rows))
	for i, row := range rows {
		out[i] = row.Question
	}
	return out
}

// Tags returns the labeler's raw tags for qid.
func (s *LabelerTagSets) Tags(labeler, qid string) ([]string, bool) {
	table, ok := s.tables[labeler]
	if !ok {
		return nil, false
	}
	i, ok := table.index[qid]
	if !ok {
		return nil, false
	}
	return table.rows[i].Dimensions, true
}

// questionTags is one universe question with every labeler's de-duplicated
// tag set, in labeler order.
type questionTags struct {
	question types.Question
	sets     [][]string
}

// collect joins every labeler on the universe. It fails on the first
// labeler missing a universe question.
func (s *LabelerTagSets) collect() ([]questionTags, error) {
	if s == nil || len(s.order) == 0 {
		return nil, types.InvalidArgument("no labeler tag sets")
	}

	universe := s.Universe()
	out := make([]questionTags, len(universe))
	for i, q := range universe {
		sets := make([][]string, len(s.order))
		for j, labeler := range s.order {
			tags, ok := s.Tags(labeler, q.QID)
			if !ok {
				return nil, types.NewMissingQuestionError(labeler, q.QID)
			}
			sets[j] = dedupe(tags)
		}
		out[i] = questionTags{question: q, sets: sets}
	}
	return out, nil
}
