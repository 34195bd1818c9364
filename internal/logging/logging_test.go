package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "logfmt")
	require.NoError(t, err)

	logger.Info("quiet message")
	logger.Warn("update on missing module", "key", "groceries")

	out := buf.String()
	assert.NotContains(t, out, "quiet message")
	assert.Contains(t, out, "update on missing module")
	assert.Contains(t, out, "groceries")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "DEBUG", "json")
	require.NoError(t, err)

	logger.Debug("module created", "type", "list")
	out := buf.String()
	assert.Contains(t, out, "module created")
	assert.Contains(t, out, "list")
	assert.Contains(t, out, "{")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("ignored") })
}
