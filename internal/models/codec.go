package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// DecodeRecord decodes a stored JSON object. Empty input, invalid JSON,
// trailing garbage and non-object values all yield nil. Invalid UTF-8 is
// replaced with U+FFFD first.
func DecodeRecord(raw []byte) AnswerRecord {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(strings.ToValidUTF8(string(raw), "�")))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil
	}
	return AnswerRecord(obj)
}

// EncodeRecord writes r as one JSON line. Object keys are sorted and HTML
// characters are left unescaped, so equal records always encode to equal
// bytes.
func EncodeRecord(w io.Writer, r AnswerRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any(r))
}
