package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmb-scraper/config"
)

func TestPacerSampleStaysInRange(t *testing.T) {
	p := NewPacer(SystemClock{}, 42)
	r := config.DelayRange{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond}
	for i := 0; i < 500; i++ {
		d := p.Sample(r)
		require.GreaterOrEqual(t, d, r.Min)
		require.LessOrEqual(t, d, r.Max)
	}
}

func TestPacerSampleDegenerateRange(t *testing.T) {
	p := NewPacer(nil, 1)
	r := config.DelayRange{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, p.Sample(r))
}

func TestSystemClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacerPick(t *testing.T) {
	p := NewPacer(nil, 7)
	assert.Equal(t, "", p.Pick(nil))
	assert.Equal(t, "only", p.Pick([]string{"only"}))
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), Discard(), "op", 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), Discard(), "op", 2, time.Millisecond, func() error {
			calls++
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.Contains(t, err.Error(), "all 2 attempts failed")
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		sentinel := errors.New("bad credentials")
		calls := 0
		err := Retry(context.Background(), Discard(), "op", 5, time.Millisecond, func() error {
			calls++
			return backoff.Permanent(sentinel)
		})
		require.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})
}

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	l := NewLogger(&console, &file)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Warn("keyword %q skipped", "plumbers")

	assert.Contains(t, console.String(), `[03:04:05] [WARN ] keyword "plumbers" skipped`)
	assert.Equal(t, "2026-01-02 03:04:05 - WARN  - keyword \"plumbers\" skipped\n", file.String())
	assert.False(t, strings.Contains(file.String(), "\033["), "file output must not carry colour codes")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("nothing happens")
}

func TestStealthOpts(t *testing.T) {
	cfg := config.DefaultConfig()
	base := len(StealthOpts(cfg, ""))

	cfg.Headless = true
	cfg.ProfileDir = "/tmp/profile"
	assert.Equal(t, base+4, len(StealthOpts(cfg, "agent")))
}

func TestStealthOptsBaseFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Headless = false
	cfg.ProfileDir = ""

	assert.Len(t, StealthOpts(cfg, ""), 7)
}
