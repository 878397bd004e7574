package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminalStatus(t *testing.T) {
	terminal := []JobStatus{
		StatusIngestionCompleted,
		StatusIngestionFailed,
		StatusDeleteCompleted,
		StatusDeleteFailed,
	}
	for _, s := range terminal {
		assert.True(t, IsTerminalStatus(s), "%s should be terminal", s)
	}

	nonTerminal := []JobStatus{
		StatusUnknown,
		StatusPending,
		StatusInProgress,
		StatusDeleting,
	}
	for _, s := range nonTerminal {
		assert.False(t, IsTerminalStatus(s), "%s should not be terminal", s)
	}
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(StatusIngestionCompleted))
	assert.True(t, IsSuccessStatus(StatusDeleteCompleted))

	failures := []JobStatus{
		StatusUnknown,
		StatusPending,
		StatusInProgress,
		StatusDeleting,
		StatusIngestionFailed,
		StatusDeleteFailed,
	}
	for _, s := range failures {
		assert.False(t, IsSuccessStatus(s), "%s should not be a success", s)
	}
}

func TestIsActiveStatus(t *testing.T) {
	assert.True(t, IsActiveStatus(StatusInProgress))
	assert.True(t, IsActiveStatus(StatusDeleting))
	assert.False(t, IsActiveStatus(StatusPending))
	assert.False(t, IsActiveStatus(StatusIngestionCompleted))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", StatusPending.String())
	assert.Equal(t, "DELETE_FAILED", StatusDeleteFailed.String())
	assert.Equal(t, "UNKNOWN", JobStatus(99).String())
}
