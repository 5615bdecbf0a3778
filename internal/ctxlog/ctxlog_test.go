package ctxlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestFromContext_Default(t *testing.T) {
	assert.Same(t, log.Default(), FromContext(context.Background()))
}

func TestWithLogger_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.DebugLevel)
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Debug("scanned", "module", "example.com/app")
	assert.Contains(t, buf.String(), "scanned")
	assert.Contains(t, buf.String(), "example.com/app")
}

func TestTimer_Done(t *testing.T) {
	var buf bytes.Buffer
	d := Start(New(&buf, log.InfoLevel)).Done("built", "nodes", 3)
	assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
	assert.Contains(t, buf.String(), "elapsed")
}
