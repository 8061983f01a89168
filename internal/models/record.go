package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Field names read and written by the export engine.
const (
	FieldPID             = "prolificID"
	FieldDataset         = "dataset"
	FieldUID             = "uid"
	FieldDifficulty      = "difficulty"
	FieldDifficultyScale = "difficultyScale"
	FieldQuestion        = "question"
	FieldLabel           = "label"
	FieldMap             = "map"
	FieldQuestionData    = "questionData"
	FieldDatasetMeta     = "datasetMeta"
	FieldOrigTimestamp   = "origTimestamp"
	FieldTimestamp       = "timestamp"
	FieldCreatedAt       = "created_at"
)

// AnswerRecord is one respondent's answer to one question, kept as free-form
// JSON. Numbers are json.Number so they re-encode exactly as read.
type AnswerRecord map[string]any

// String returns the field as text. Missing and null fields are "".
func (r AnswerRecord) String(field string) string {
	return AsString(r[field])
}

// Key returns the merge key "pid:uid", or "" when either part is missing.
func (r AnswerRecord) Key() string {
	pid := r.String(FieldPID)
	uid := r.String(FieldUID)
	if pid == "" || uid == "" {
		return ""
	}
	return pid + ":" + uid
}

// SetDefault sets field only when it is not already present.
func (r AnswerRecord) SetDefault(field string, value any) {
	if _, ok := r[field]; !ok {
		r[field] = value
	}
}

// Clone returns a shallow copy.
func (r AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Timestamp returns the record's timestamp in milliseconds, taken from the
// first truthy of origTimestamp, timestamp and created_at.
func (r AnswerRecord) Timestamp() (int64, bool) {
	for _, field := range []string{FieldOrigTimestamp, FieldTimestamp, FieldCreatedAt} {
		v, ok := r[field]
		if !ok || !truthy(v) {
			continue
		}
		return ParseTimestamp(v)
	}
	return 0, false
}

// AsString converts scalar JSON values to text.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []byte:
		return strings.ToValidUTF8(string(t), "�")
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// ParseNumeric interprets a difficulty value as a number. Booleans count as
// 0 and 1; blank strings and non-numeric tokens are not numbers. Literals
// beyond float64 range are numbers with value ±Inf.
func ParseNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		return parseFloat(string(t))
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		return parseFloat(s)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
		return f, true
	}
	return 0, false
}

// ParseTimestamp reads integer milliseconds from a number or numeric string,
// truncating any fraction.
func ParseTimestamp(v any) (int64, bool) {
	f, ok := ParseNumeric(v)
	if !ok {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	if f != f || f > 9.2e18 || f < -9.2e18 {
		return 0, false
	}
	return int64(f), true
}

// IsMeaningful reports whether a value carries information: not null and
// not an empty or blank string.
func IsMeaningful(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
