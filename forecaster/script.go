// Package forecaster runs an external forecasting script and parses its
// per-branch, per-pet-type predictions.
package forecaster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"petcare-analytics/analytics"
)

// DefaultTimeout bounds a single script run
const DefaultTimeout = 60 * time.Second

// maxStderr caps the stderr excerpt carried in errors
const maxStderr = 512

// ScriptForecaster executes Command with Args, writes the JSON ForecastInput to
// its stdin and reads {"<branch>": {"<petType>": count}} from its stdout.
// Each call runs one process; there are no retries.
type ScriptForecaster struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewScriptForecaster creates a forecaster. A non-positive timeout selects DefaultTimeout.
func NewScriptForecaster(command string, args []string, timeout time.Duration) *ScriptForecaster {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ScriptForecaster{
		Command: command,
		Args:    append([]string(nil), args...),
		Timeout: timeout,
	}
}

// ForecastPetTypes runs the script once and validates its output
func (f *ScriptForecaster) ForecastPetTypes(ctx context.Context, input analytics.ForecastInput) (map[string]map[string]int, error) {
	if f.Command == "" {
		return nil, errors.New("forecast script not configured")
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode forecast input: %w", err)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, f.Command, f.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("forecast script timed out after %v", timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := excerpt(stderr.String()); msg != "" {
			return nil, fmt.Errorf("forecast script failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("forecast script failed: %w", err)
	}

	counts, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	log.Printf("🔮 Forecast script finished in %v (%d branches)", time.Since(start), len(counts))
	return counts, nil
}

// ParseOutput decodes and validates the script's stdout
func ParseOutput(data []byte) (map[string]map[string]int, error) {
	var counts map[string]map[string]int
	if err := json.Unmarshal(bytes.TrimSpace(data), &counts); err != nil {
		return nil, fmt.Errorf("invalid forecast output: %w", err)
	}
	if len(counts) == 0 {
		return nil, errors.New("forecast output is empty")
	}
	for branch, types := range counts {
		for petType, n := range types {
			if n < 0 {
				return nil, fmt.Errorf("negative forecast %d for %s/%s", n, branch, petType)
			}
		}
	}
	return counts, nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
