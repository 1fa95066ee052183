package forecaster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petcare-analytics/analytics"
)

func sampleInput() analytics.ForecastInput {
	var monthly analytics.MonthlySeries
	monthly[2] = 4
	return analytics.ForecastInput{
		Branches: map[string]analytics.BranchSeries{
			"Colombo Branch": {Monthly: monthly},
		},
		PetTypes:      []string{"Dog", "Cat"},
		ForecastMonth: 3,
	}
}

func shell(script string, timeout time.Duration) *ScriptForecaster {
	return NewScriptForecaster("sh", []string{"-c", script}, timeout)
}

func TestForecastPetTypesSuccess(t *testing.T) {
	f := shell(`cat >/dev/null; echo '{"Colombo Branch":{"Dog":3,"Cat":1}}'`, 5*time.Second)

	counts, err := f.ForecastPetTypes(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]int{"Colombo Branch": {"Dog": 3, "Cat": 1}}, counts)
}

func TestForecastPetTypesReceivesInput(t *testing.T) {
	// Echo the forecast month back as the Dog count.
	f := shell(`month=$(sed -n 's/.*"forecastMonth":\([0-9]*\).*/\1/p'); echo "{\"Colombo Branch\":{\"Dog\":$month}}"`, 5*time.Second)

	counts, err := f.ForecastPetTypes(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 3, counts["Colombo Branch"]["Dog"])
}

func TestForecastPetTypesTimeout(t *testing.T) {
	f := shell(`sleep 5`, 100*time.Millisecond)

	start := time.Now()
	_, err := f.ForecastPetTypes(context.Background(), sampleInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestForecastPetTypesScriptError(t *testing.T) {
	f := shell(`echo "model file missing" >&2; exit 3`, 5*time.Second)

	_, err := f.ForecastPetTypes(context.Background(), sampleInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file missing")
}

func TestForecastPetTypesNotConfigured(t *testing.T) {
	_, err := NewScriptForecaster("", nil, 0).ForecastPetTypes(context.Background(), sampleInput())
	assert.Error(t, err)
}

func TestForecastPetTypesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shell(`sleep 5`, 5*time.Second).ForecastPetTypes(ctx, sampleInput())
	assert.Error(t, err)
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"Kandy Branch":{"Bird":2}}`, false},
		{"trailing newline", "{\"Kandy Branch\":{\"Bird\":2}}\n", false},
		{"not json", `Traceback (most recent call last)`, true},
		{"empty object", `{}`, true},
		{"negative", `{"Kandy Branch":{"Bird":-1}}`, true},
		{"fractional", `{"Kandy Branch":{"Bird":1.5}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewScriptForecasterDefaults(t *testing.T) {
	f := NewScriptForecaster("python3", []string{"forecast.py"}, 0)
	assert.Equal(t, DefaultTimeout, f.Timeout)
	assert.Equal(t, []string{"forecast.py"}, f.Args)
}
