package evaluation

import (
	"github.com/lehigh-university-libraries/measurer/internal/dataset"
)

// Summary aggregates a labelled run.
type Summary struct {
	Rows      int     `yaml:"rows"`
	Predicted int     `yaml:"predicted"`
	Evaluated int     `yaml:"evaluated"`
	Correct   int     `yaml:"correct"`
	Clusters  int     `yaml:"clusters"`
	F1        float64 `yaml:"f1"`
}

// Evaluate scores predictions against rows. It returns the aligned pairs
// alongside the summary so callers can report per-row detail. ErrNoOverlap
// is returned together with a summary holding the counts.
func Evaluate(rows []dataset.Row, predictions []dataset.Prediction) (Summary, []Pair, error) {
	summary := Summary{
		Rows:     len(rows),
		Clusters: len(EncodeGroups(rows)),
	}
	for _, p := range predictions {
		if p.Prediction != nil {
			summary.Predicted++
		}
	}

	pairs := Align(rows, predictions)
	summary.Evaluated = len(pairs)
	if len(pairs) == 0 {
		return summary, nil, ErrNoOverlap
	}

	expected := make([]string, len(pairs))
	predicted := make([]string, len(pairs))
	for i, p := range pairs {
		expected[i] = p.Expected
		predicted[i] = p.Predicted
		if p.Match() {
			summary.Correct++
		}
	}
	summary.F1 = WeightedF1(expected, predicted)
	return summary, pairs, nil
}
