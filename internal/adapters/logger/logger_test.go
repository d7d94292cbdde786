package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

func TestSlogAdapter_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelDebug, IsJSON: true})

	logger.WithFields(port.Fields{"component": "test"}).Error("boom", errors.New("bad thing"), port.Fields{"session_id": "s1"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "boom", record["msg"])
	assert.Equal(t, "test", record["component"])
	assert.Equal(t, "s1", record["session_id"])
	assert.Equal(t, "bad thing", record["error"])
}

func TestSlogAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelWarn})

	logger.Info("hidden", nil)
	logger.Debug("hidden", nil)
	logger.Warn("shown", port.Fields{"b": 2, "a": 1})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Less(t, strings.Index(out, "a=1"), strings.Index(out, "b=2"))
}

type recordingPoster struct {
	mu     sync.Mutex
	tags   []string
	posted []map[string]interface{}
}

func (p *recordingPoster) Post(tag string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tag)
	p.posted = append(p.posted, message.(map[string]interface{}))
	return nil
}

func (p *recordingPoster) Close() error { return nil }

func TestFluentLoggerAdapter(t *testing.T) {
	poster := &recordingPoster{}
	adapter, err := NewFluentLoggerAdapter(poster, slog.LevelInfo)
	require.NoError(t, err)

	logger := adapter.WithFields(port.Fields{"service_name": "listings-frontend"})
	logger.Debug("skipped", nil)
	logger.Info("hello", port.Fields{"k": "v"})
	logger.Error("failed", errors.New("oops"), nil)

	require.Len(t, poster.posted, 2)
	assert.Equal(t, []string{"info", "error"}, poster.tags)
	assert.Equal(t, "hello", poster.posted[0]["message"])
	assert.Equal(t, "listings-frontend", poster.posted[0]["service_name"])
	assert.Equal(t, "v", poster.posted[0]["k"])
	assert.Equal(t, "oops", poster.posted[1]["error"])

	_, err = NewFluentLoggerAdapter(nil, nil)
	assert.Error(t, err)
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	multi, err := NewMultiloggerAdapter(
		NewSlogAdapter(SlogConfig{Writer: &a}),
		nil,
		NewSlogAdapter(SlogConfig{Writer: &b}),
	)
	require.NoError(t, err)

	multi.WithFields(port.Fields{"trace_id": "t-1"}).Info("fan out", nil)

	assert.Contains(t, a.String(), "trace_id=t-1")
	assert.Contains(t, b.String(), "fan out")

	_, err = NewMultiloggerAdapter(nil)
	assert.Error(t, err)
}
