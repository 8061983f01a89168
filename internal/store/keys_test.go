package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswerKey(t *testing.T) {
	t.Run("FourSegments", func(t *testing.T) {
		k, ok := ParseAnswerKey("v1:pid1:urban:q7")
		assert.True(t, ok)
		assert.Equal(t, AnswerKey{PID: "pid1", Dataset: "urban", UID: "q7"}, k)
	})

	t.Run("UIDKeepsColons", func(t *testing.T) {
		k, ok := ParseAnswerKey("v1:pid1:urban:map:3:q7")
		assert.True(t, ok)
		assert.Equal(t, "map:3:q7", k.UID)
	})

	t.Run("TooFewSegments", func(t *testing.T) {
		_, ok := ParseAnswerKey("v1:pid1:urban")
		assert.False(t, ok)
	})
}

func TestKeys(t *testing.T) {
	keys := NewKeys("")

	assert.Equal(t, "v1:usernames", keys.Respondents())
	assert.Equal(t, "v1:p*:*:*", NewKeys("v1").AnswerPattern("p"))
	assert.Equal(t, `v1:p\*x:*:*`, keys.AnswerPattern("p*x"))
	assert.Equal(t, "v1:datasets:urban:q1", keys.Question("urban", "q1"))
	assert.Equal(t, "v1:datasets:urban:meta", keys.DatasetMeta("urban"))
	assert.True(t, IsMetaKey(keys.DatasetMeta("urban")))
	assert.False(t, IsMetaKey(keys.Answer("p", "urban", "q1")))
}
