package store

import (
	"fmt"
	"strings"
)

const (
	DefaultNamespace = "v1"
	metaSuffix       = ":meta"
)

// Keys builds and parses the key layout under one namespace:
//
//	<ns>:usernames                  set of respondent ids
//	<ns>:<pid>:<dataset>:<uid>      answer
//	<ns>:datasets:<dataset>:<uid>   question metadata
//	<ns>:datasets:<dataset>:meta    dataset metadata
type Keys struct {
	Namespace string
}

func NewKeys(namespace string) Keys {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Keys{Namespace: namespace}
}

func (k Keys) Respondents() string {
	return k.Namespace + ":usernames"
}

// AnswerPattern matches every answer key of one respondent. It also matches
// bookkeeping keys, which IsMetaKey filters out.
func (k Keys) AnswerPattern(pid string) string {
	return fmt.Sprintf("%s:%s:*:*", k.Namespace, escapeGlob(pid))
}

func (k Keys) Answer(pid, dataset, uid string) string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Namespace, pid, dataset, uid)
}

func (k Keys) Question(dataset, uid string) string {
	return fmt.Sprintf("%s:datasets:%s:%s", k.Namespace, dataset, uid)
}

func (k Keys) DatasetMeta(dataset string) string {
	return fmt.Sprintf("%s:datasets:%s%s", k.Namespace, dataset, metaSuffix)
}

// AnswerKey is the identity implied by an answer's storage location.
type AnswerKey struct {
	PID     string
	Dataset string
	UID     string
}

// ParseAnswerKey splits "<ns>:<pid>:<dataset>:<uid>". The uid keeps any
// further ':' segments.
func ParseAnswerKey(key string) (AnswerKey, bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 4 {
		return AnswerKey{}, false
	}
	return AnswerKey{
		PID:     parts[1],
		Dataset: parts[2],
		UID:     strings.Join(parts[3:], ":"),
	}, true
}

// IsMetaKey reports whether key is a bookkeeping key rather than an answer.
func IsMetaKey(key string) bool {
	return strings.HasSuffix(key, metaSuffix)
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
