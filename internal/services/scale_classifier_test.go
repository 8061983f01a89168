package services

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestClassifyScale(t *testing.T) {
	tests := []struct {
		name     string
		max      *float64
		timeLike bool
		want     models.DifficultyScale
	}{
		{"time-like wins", ptr(8), true, models.ScaleTime},
		{"no values", nil, false, models.ScaleUnknown},
		{"above five", ptr(8), false, models.ScaleTen},
		{"exactly five", ptr(5), false, models.ScaleFive},
		{"small values", ptr(3), false, models.ScaleFive},
		{"just above five", ptr(5.5), false, models.ScaleTen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyScale(tt.max, tt.timeLike))
		})
	}
}

func TestScaleAggregator(t *testing.T) {
	agg := NewScaleAggregator()

	observe := func(dataset string, difficulty any, ts any) *DifficultyRecord {
		rec := record(dataset, "p", "q", difficulty, ts, "")
		agg.Observe(rec)
		return rec
	}

	ten := []*DifficultyRecord{
		observe("ten", json.Number("8"), json.Number("2000")),
		observe("ten", "3", json.Number("1000")),
	}
	observe("five", json.Number("5"), nil)
	observe("five", true, nil)
	observe("time", json.Number("2"), nil)
	observe("time", "00:42", nil)
	observe("empty", "  ", nil)
	observe("empty", nil, nil)
	observe("nan", math.NaN(), nil)

	scales := agg.Scales()
	assert.Equal(t, map[string]models.DifficultyScale{
		"ten":   models.ScaleTen,
		"five":  models.ScaleFive,
		"time":  models.ScaleTime,
		"empty": models.ScaleUnknown,
		"nan":   models.ScaleUnknown,
	}, scales)

	stats := agg.Stats()
	var names []string
	for _, st := range stats {
		names = append(names, st.Dataset)
	}
	assert.Equal(t, []string{"empty", "five", "nan", "ten", "time"}, names)

	tenStats := stats[3]
	want := models.DatasetStats{
		Dataset:        "ten",
		Scale:          models.ScaleTen,
		Records:        2,
		NumericValues:  2,
		MaxNumeric:     ptr(8),
		FirstTimestamp: int64Ptr(1000),
		LastTimestamp:  int64Ptr(2000),
	}
	if diff := cmp.Diff(want, tenStats); diff != "" {
		t.Errorf("ten stats mismatch (-want +got):\n%s", diff)
	}

	LabelRecords(ten, scales)
	for _, rec := range ten {
		assert.Equal(t, models.ScaleTen, rec.Scale())
	}
}

func TestLabelRecords_OverwritesAndDefaults(t *testing.T) {
	stale := record("ds", "p", "q", json.Number("9"), nil, models.ScaleFive)
	orphan := record("other", "p", "q", json.Number("9"), nil, "")

	LabelRecords([]*DifficultyRecord{stale, orphan}, map[string]models.DifficultyScale{"ds": models.ScaleTen})

	assert.Equal(t, models.ScaleTen, stale.Scale())
	assert.Equal(t, models.ScaleUnknown, orphan.Scale())
}

func int64Ptr(v int64) *int64 { return &v }

func TestScaleAggregator_OverflowingNumberStaysNumeric(t *testing.T) {
	agg := NewScaleAggregator()
	agg.Observe(record("ds", "p1", "q1", json.Number("3"), nil, ""))
	agg.Observe(record("ds", "p2", "q1", json.Number("1e400"), nil, ""))

	assert.Equal(t, models.ScaleTen, agg.Scales()["ds"])

	stats := agg.Stats()
	assert.Equal(t, 2, stats[0].NumericValues)
	assert.Zero(t, stats[0].TimeLikeValues)
}
