package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: DebugLevel},
		{name: "upper case", input: "INFO", want: InfoLevel},
		{name: "empty defaults to info", input: "", want: InfoLevel},
		{name: "warning alias", input: "warning", want: WarnLevel},
		{name: "error", input: " error ", want: ErrorLevel},
		{name: "fatal", input: "fatal", want: FatalLevel},
		{name: "unknown", input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlogLogger_JSONOutput(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug must be filtered at info level")

	l.Info("move completed", "channel", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "move completed", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.EqualValues(t, 1, rec["channel"])
	assert.Contains(t, rec, "ts")
}

func TestSlogLogger_LevelAndWith(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, WarnLevel, false)
	assert.Equal(t, WarnLevel, l.Level())

	child := l.With("session", "stage-x")
	child.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.Level(), "child shares the parent level")

	child.Debug("drained", "bytes", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "stage-x", rec["session"])
}

func TestMockLogger(t *testing.T) {
	m := NewMockLogger()
	m.On("Info", "hello", []any{"k", "v"}).Return()

	var l Logger = m
	l.Info("hello", "k", "v")

	m.AssertExpectations(t)
}

func TestSetLogger(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() { SetLogger(prev) })

	m := NewMockLogger()
	m.On("Warn", "desynced", []any{"reason", "timeout"}).Return().Once()
	m.AllowAll()

	SetLogger(m)
	Warn("desynced", "reason", "timeout")
	Debug("ignored")
	assert.Same(t, m, With("k", "v"))

	SetLogger(nil)
	assert.Same(t, m, GetLogger())

	m.AssertExpectations(t)
}
