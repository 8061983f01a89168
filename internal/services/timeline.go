package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// SortRecords orders records by timestamp (missing timestamps first), then
// dataset, then uid. The sort is stable.
func SortRecords(records []*DifficultyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if ta, tb := a.sortTimestamp(), b.sortTimestamp(); ta != tb {
			return ta < tb
		}
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		return a.Payload.String(models.FieldUID) < b.Payload.String(models.FieldUID)
	})
}

func (r *DifficultyRecord) sortTimestamp() int64 {
	if !r.HasTimestamp {
		return 0
	}
	return r.Timestamp
}

// Timeline is the run's records in time order.
type Timeline struct {
	records []*DifficultyRecord
}

// BuildTimeline sorts a copy of records; the input order is untouched.
func BuildTimeline(records []*DifficultyRecord) *Timeline {
	sorted := append([]*DifficultyRecord(nil), records...)
	SortRecords(sorted)
	return &Timeline{records: sorted}
}

// FirstAfter returns the earliest timestamped record labelled scale whose
// timestamp is greater than after. A nil bound accepts any timestamp.
// Records without a timestamp are never returned.
func (t *Timeline) FirstAfter(scale models.DifficultyScale, after *int64) *DifficultyRecord {
	for _, rec := range t.records {
		if rec.Scale() != scale || !rec.HasTimestamp {
			continue
		}
		if after != nil && rec.Timestamp <= *after {
			continue
		}
		return rec
	}
	return nil
}

type TransitionStatus string

const (
	TransitionObserved    TransitionStatus = "observed"
	TransitionInferred    TransitionStatus = "inferred"
	TransitionNotObserved TransitionStatus = "not_observed"
)

// Transition is one step of the 0-10 → 0-5 → time progression.
type Transition struct {
	From   models.DifficultyScale `json:"from"`
	To     models.DifficultyScale `json:"to"`
	Status TransitionStatus       `json:"status"`
	At     *DifficultyRecord      `json:"-"`
}

// Message renders the transition for the console summary.
func (t Transition) Message() string {
	arrow := fmt.Sprintf("%s → %s", t.From, t.To)
	switch t.Status {
	case TransitionObserved:
		return fmt.Sprintf("%s at %s", arrow, Describe(t.At))
	case TransitionInferred:
		return fmt.Sprintf("%s switch inferred at %s", arrow, Describe(t.At))
	default:
		return fmt.Sprintf("%s switch not observed", arrow)
	}
}

// ScaleSwitches is the reconstructed scale history of a run.
type ScaleSwitches struct {
	FirstSeen   map[models.DifficultyScale]*DifficultyRecord
	Transitions []Transition
}

// Reconstruct walks the expected progression 0-10 → 0-5 → time. Each step
// searches after the previous step's hit, falling back to the closest
// earlier bound when a step was never observed.
func (t *Timeline) Reconstruct() ScaleSwitches {
	firstSeen := make(map[models.DifficultyScale]*DifficultyRecord)
	for _, scale := range models.ScaleProgression {
		if rec := t.FirstAfter(scale, nil); rec != nil {
			firstSeen[scale] = rec
		}
	}

	firstTen := firstSeen[models.ScaleTen]

	var firstFive *DifficultyRecord
	if firstTen != nil {
		firstFive = t.FirstAfter(models.ScaleFive, &firstTen.Timestamp)
	} else {
		firstFive = firstSeen[models.ScaleFive]
	}

	var firstTime *DifficultyRecord
	switch {
	case firstFive != nil:
		firstTime = t.FirstAfter(models.ScaleTime, &firstFive.Timestamp)
	case firstTen != nil:
		firstTime = t.FirstAfter(models.ScaleTime, &firstTen.Timestamp)
	default:
		firstTime = firstSeen[models.ScaleTime]
	}

	tenToFive := Transition{From: models.ScaleTen, To: models.ScaleFive, Status: TransitionNotObserved}
	switch {
	case firstTen != nil && firstFive != nil:
		tenToFive.Status, tenToFive.At = TransitionObserved, firstFive
	case firstFive != nil:
		tenToFive.Status, tenToFive.At = TransitionInferred, firstFive
	}

	// A time record with no earlier scale at all is not evidence of a switch.
	fiveToTime := Transition{From: models.ScaleFive, To: models.ScaleTime, Status: TransitionNotObserved}
	switch {
	case firstFive != nil && firstTime != nil:
		fiveToTime.Status, fiveToTime.At = TransitionObserved, firstTime
	case firstTen != nil && firstTime != nil:
		fiveToTime.Status, fiveToTime.At = TransitionInferred, firstTime
	}

	return ScaleSwitches{
		FirstSeen:   firstSeen,
		Transitions: []Transition{tenToFive, fiveToTime},
	}
}

// Messages returns one line per transition.
func (s ScaleSwitches) Messages() []string {
	out := make([]string, len(s.Transitions))
	for i, tr := range s.Transitions {
		out[i] = tr.Message()
	}
	return out
}

// Summary is the one-line switch narrative.
func (s ScaleSwitches) Summary() string {
	return "Difficulty scale switches: " + strings.Join(s.Messages(), "; ")
}

// FirstSeenSummary names the first timestamped observation of each scale.
func (s ScaleSwitches) FirstSeenSummary() string {
	var parts []string
	for _, scale := range models.ScaleProgression {
		if rec, ok := s.FirstSeen[scale]; ok {
			parts = append(parts, fmt.Sprintf("%s at %s", scale, Describe(rec)))
		}
	}
	if len(parts) == 0 {
		return "Difficulty scales first observed: none"
	}
	return "Difficulty scales first observed: " + strings.Join(parts, "; ")
}

// Describe renders a record as "<time> (dataset=…, pid=…, uid=…)".
func Describe(rec *DifficultyRecord) string {
	if rec == nil {
		return "not observed"
	}
	ts := "unknown"
	if rec.HasTimestamp {
		ts = FormatMillis(rec.Timestamp)
	}
	return fmt.Sprintf("%s (dataset=%s, pid=%s, uid=%s)",
		ts,
		orUnknown(rec.Payload.String(models.FieldDataset)),
		orUnknown(rec.Payload.String(models.FieldPID)),
		orUnknown(rec.Payload.String(models.FieldUID)),
	)
}

// FormatMillis renders epoch milliseconds as RFC 3339 UTC, or "unknown"
// when the instant falls outside years 1–9999.
func FormatMillis(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "unknown"
	}
	return t.Format(time.RFC3339Nano)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
