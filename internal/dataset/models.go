package dataset

// Row is one input record: an image to measure and the entity to measure.
// GroupID and EntityValue are only present in labelled datasets.
type Row struct {
	Index       int64  `json:"index" parquet:"index"`
	ImageLink   string `json:"image_link" parquet:"image_link"`
	EntityName  string `json:"entity_name" parquet:"entity_name"`
	GroupID     string `json:"group_id,omitempty" parquet:"group_id,optional"`
	EntityValue string `json:"entity_value,omitempty" parquet:"entity_value,optional"`
}

// Prediction is the outcome for one input row. Prediction is nil when no
// measurement could be produced. Error carries the reason for logging and is
// never written to an output table.
type Prediction struct {
	Index      int64   `json:"index"`
	GroupID    string  `json:"group_id,omitempty"`
	EntityName string  `json:"entity_name"`
	Prediction *string `json:"prediction"`
	Error      string  `json:"-"`
}

// Value returns the predicted measurement and whether one exists.
func (p Prediction) Value() (string, bool) {
	if p.Prediction == nil {
		return "", false
	}
	return *p.Prediction, true
}

// predictionRow is the base output schema.
type predictionRow struct {
	Index      int64   `json:"index" parquet:"index"`
	Prediction *string `json:"prediction" parquet:"prediction"`
}

// groupedPredictionRow is the output schema of labelled runs.
type groupedPredictionRow struct {
	Index      int64   `json:"index" parquet:"index"`
	GroupID    string  `json:"group_id" parquet:"group_id"`
	Prediction *string `json:"prediction" parquet:"prediction"`
}
