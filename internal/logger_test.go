package internal

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logVM creates a VM that logs everything to the returned buffer.
func logVM(cfg Config) (*VM, *bytes.Buffer) {
	var b bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}))
	vm := NewVM(WithConfig(cfg), WithLogger(logger))
	b.Reset()
	return vm, &b
}

func TestLogDepthExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCallDepth = 20
	vm, b := logVM(cfg)
	c, err := vm.RunString(`function f() { f() } f()`, "TestLogDepthExceeded")
	require.NoError(t, err)
	assert.Equal(t, ThrowStop, c.Stop)
	assert.Contains(t, b.String(), "level=WARN")
	assert.Contains(t, b.String(), "call depth exceeded")
	assert.Contains(t, b.String(), "depth=20")
}

func TestLogInterrupt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InterruptEvery = 1
	vm, b := logVM(cfg)
	stop := errors.New("enough")
	vm.SetInterrupt(func() error { return stop })
	c, err := vm.RunString(`for (;;) {}`, "TestLogInterrupt")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Err(), stop)
	assert.Contains(t, b.String(), "level=INFO")
	assert.Contains(t, b.String(), "evaluation interrupted")
	assert.Contains(t, b.String(), "err=enough")
}

func TestLogReclaim(t *testing.T) {
	vm, b := logVM(DefaultConfig())
	_, err := vm.RunString(`({a: {}}); 0`, "TestLogReclaim")
	require.NoError(t, err)
	assert.Contains(t, b.String(), "level=DEBUG")
	assert.Contains(t, b.String(), "msg=reclaimed")
	assert.Contains(t, b.String(), "destroyed=")
}
