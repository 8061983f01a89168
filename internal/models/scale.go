package models

// DifficultyScale is the rating convention a dataset used for difficulty.
type DifficultyScale string

const (
	ScaleTen     DifficultyScale = "0-10"
	ScaleFive    DifficultyScale = "0-5"
	ScaleTime    DifficultyScale = "time"
	ScaleUnknown DifficultyScale = "unknown"
)

// ScaleProgression is the order the survey moved through its scales.
var ScaleProgression = []DifficultyScale{ScaleTen, ScaleFive, ScaleTime}

// DatasetStats is the per-dataset aggregate the scale is derived from.
type DatasetStats struct {
	Dataset        string          `json:"dataset"`
	Scale          DifficultyScale `json:"scale"`
	Records        int             `json:"records"`
	NumericValues  int             `json:"numeric_values"`
	TimeLikeValues int             `json:"time_like_values"`
	MaxNumeric     *float64        `json:"max_numeric,omitempty"`
	FirstTimestamp *int64          `json:"first_timestamp,omitempty"`
	LastTimestamp  *int64          `json:"last_timestamp,omitempty"`
}
