// Package evaluation scores predictions against labelled rows.
package evaluation

import (
	"errors"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
)

// ErrNoOverlap is returned when no row has both a prediction and a label.
var ErrNoOverlap = errors.New("no rows with both a prediction and a ground truth value")

// Pair is one scored row.
type Pair struct {
	Index      int64
	GroupID    string
	EntityName string
	Expected   string
	Predicted  string
}

// Match reports whether the prediction equals the label exactly.
func (p Pair) Match() bool {
	return p.Expected == p.Predicted
}

// Align joins rows and predictions on row index, keeping only rows where
// both the label and the prediction are present.
func Align(rows []dataset.Row, predictions []dataset.Prediction) []Pair {
	byIndex := make(map[int64]dataset.Prediction, len(predictions))
	for _, p := range predictions {
		byIndex[p.Index] = p
	}

	var pairs []Pair
	for _, row := range rows {
		expected := strings.TrimSpace(row.EntityValue)
		if expected == "" {
			continue
		}
		p, ok := byIndex[row.Index]
		if !ok {
			continue
		}
		predicted, ok := p.Value()
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{
			Index:      row.Index,
			GroupID:    row.GroupID,
			EntityName: row.EntityName,
			Expected:   expected,
			Predicted:  predicted,
		})
	}
	return pairs
}

// WeightedF1 is the support-weighted mean of the per-label F1 scores, with
// every distinct string treated as its own class. Labels that only occur in
// predicted have no support and add nothing.
func WeightedF1(expected, predicted []string) float64 {
	if len(expected) == 0 || len(expected) != len(predicted) {
		return 0
	}

	tp := make(map[string]int)
	fp := make(map[string]int)
	support := make(map[string]int)
	for i := range expected {
		support[expected[i]]++
		if expected[i] == predicted[i] {
			tp[expected[i]]++
		} else {
			fp[predicted[i]]++
		}
	}

	var weighted float64
	for label, n := range support {
		fn := n - tp[label]
		weighted += float64(n) * f1(tp[label], fp[label], fn)
	}
	return weighted / float64(len(expected))
}

func f1(tp, fp, fn int) float64 {
	if tp == 0 {
		return 0
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	return 2 * precision * recall / (precision + recall)
}

// EncodeGroups assigns each distinct group id a dense code in sorted order.
// Rows without a group id are ignored.
func EncodeGroups(rows []dataset.Row) map[string]int {
	var ids []string
	seen := make(map[string]bool)
	for _, row := range rows {
		if row.GroupID == "" || seen[row.GroupID] {
			continue
		}
		seen[row.GroupID] = true
		ids = append(ids, row.GroupID)
	}
	slices.Sort(ids)

	codes := make(map[string]int, len(ids))
	for i, id := range ids {
		codes[id] = i
	}
	return codes
}
