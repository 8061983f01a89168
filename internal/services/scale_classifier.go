package services

import (
	"math"
	"sort"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// scaleBoundary separates the 0-5 scale from the 0-10 scale.
const scaleBoundary = 5

// ClassifyScale infers a dataset's scale from its observed difficulties.
// Any time-like value makes the whole dataset time based.
func ClassifyScale(maxNumeric *float64, hasTimeLike bool) models.DifficultyScale {
	if hasTimeLike {
		return models.ScaleTime
	}
	if maxNumeric == nil {
		return models.ScaleUnknown
	}
	if *maxNumeric > scaleBoundary {
		return models.ScaleTen
	}
	return models.ScaleFive
}

// DifficultyRecord is an enriched answer plus the values the engine derives
// from it.
type DifficultyRecord struct {
	Payload      models.AnswerRecord
	Dataset      string
	Timestamp    int64
	HasTimestamp bool
}

func NewDifficultyRecord(dataset string, payload models.AnswerRecord) *DifficultyRecord {
	ts, ok := payload.Timestamp()
	return &DifficultyRecord{
		Payload:      payload,
		Dataset:      dataset,
		Timestamp:    ts,
		HasTimestamp: ok,
	}
}

// Scale returns the label stamped on the record.
func (r *DifficultyRecord) Scale() models.DifficultyScale {
	return models.DifficultyScale(r.Payload.String(models.FieldDifficultyScale))
}

// ScaleAggregator collects per-dataset statistics. Classification needs
// every value of a dataset, so labelling happens only after all records
// have been observed.
type ScaleAggregator struct {
	stats map[string]*models.DatasetStats
}

func NewScaleAggregator() *ScaleAggregator {
	return &ScaleAggregator{stats: make(map[string]*models.DatasetStats)}
}

// Observe folds one record into its dataset's statistics.
func (a *ScaleAggregator) Observe(rec *DifficultyRecord) {
	st, ok := a.stats[rec.Dataset]
	if !ok {
		st = &models.DatasetStats{Dataset: rec.Dataset}
		a.stats[rec.Dataset] = st
	}
	st.Records++

	value := rec.Payload[models.FieldDifficulty]
	n, numeric := models.ParseNumeric(value)
	switch {
	case numeric && math.IsNaN(n):
		// NaN carries no scale information
	case numeric:
		st.NumericValues++
		if st.MaxNumeric == nil || n > *st.MaxNumeric {
			v := n
			st.MaxNumeric = &v
		}
	case models.IsMeaningful(value):
		// whitespace-only strings count as absent, not time-like
		st.TimeLikeValues++
	}

	if rec.HasTimestamp {
		ts := rec.Timestamp
		if st.FirstTimestamp == nil || ts < *st.FirstTimestamp {
			first := ts
			st.FirstTimestamp = &first
		}
		if st.LastTimestamp == nil || ts > *st.LastTimestamp {
			last := ts
			st.LastTimestamp = &last
		}
	}
}

// Scales classifies every observed dataset.
func (a *ScaleAggregator) Scales() map[string]models.DifficultyScale {
	scales := make(map[string]models.DifficultyScale, len(a.stats))
	for dataset, st := range a.stats {
		scales[dataset] = ClassifyScale(st.MaxNumeric, st.TimeLikeValues > 0)
	}
	return scales
}

// Stats returns the statistics with scales filled in, sorted by dataset.
func (a *ScaleAggregator) Stats() []models.DatasetStats {
	out := make([]models.DatasetStats, 0, len(a.stats))
	for _, st := range a.stats {
		s := *st
		s.Scale = ClassifyScale(st.MaxNumeric, st.TimeLikeValues > 0)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dataset < out[j].Dataset })
	return out
}

// LabelRecords stamps each record with its dataset's scale, replacing any
// label it already carried.
func LabelRecords(records []*DifficultyRecord, scales map[string]models.DifficultyScale) {
	for _, rec := range records {
		scale, ok := scales[rec.Dataset]
		if !ok {
			scale = models.ScaleUnknown
		}
		rec.Payload[models.FieldDifficultyScale] = string(scale)
	}
}
