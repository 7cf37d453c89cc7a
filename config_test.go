package obp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsBelinda/obp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := obp.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, obp.DefaultRatioSBP, cfg.RatioSBP)
	assert.Equal(t, obp.DefaultRatioDBP, cfg.RatioDBP)
	assert.Equal(t, obp.DefaultMinNbrPeaks, cfg.MinNbrPeaks)
	assert.Equal(t, obp.DefaultPumpUpTarget, cfg.PumpUpTarget)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*obp.Config)
	}{
		{"zero ratioSBP", func(c *obp.Config) { c.RatioSBP = 0 }},
		{"ratioSBP at one", func(c *obp.Config) { c.RatioSBP = 1.0 }},
		{"negative ratioDBP", func(c *obp.Config) { c.RatioDBP = -0.5 }},
		{"ratioDBP above one", func(c *obp.Config) { c.RatioDBP = 1.2 }},
		{"zero minNbrPeaks", func(c *obp.Config) { c.MinNbrPeaks = 0 }},
		{"negative pump-up target", func(c *obp.Config) { c.PumpUpTarget = -10 }},
		{"near-empty above target", func(c *obp.Config) {
			c.NearEmptyThreshold = c.PumpUpTarget + 1
		}},
		{"zero near-empty", func(c *obp.Config) { c.NearEmptyThreshold = 0 }},
		{"cuff-empty above near-empty", func(c *obp.Config) {
			c.CuffEmptyThreshold = c.NearEmptyThreshold + 1
		}},
		{"negative cuff-empty", func(c *obp.Config) { c.CuffEmptyThreshold = -1 }},
		{"zero gain", func(c *obp.Config) { c.MMHgPerVolt = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := obp.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), obp.ErrInvalidConfig)
		})
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase obp.Phase
		want  string
	}{
		{obp.PhaseIdle, "idle"},
		{obp.PhaseWaitInflate, "wait-inflate"},
		{obp.PhaseDeflating, "deflating"},
		{obp.PhaseWaitEmptyCuff, "wait-empty-cuff"},
		{obp.PhaseResult, "result"},
		{obp.Phase(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}
}
