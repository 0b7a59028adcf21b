package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThresholdConfig_Clamps(t *testing.T) {
	cfg := NewThresholdConfig(-1, 2, 0.5, 1.5)

	assert.Equal(t, ThresholdConfig{Asymmetry: 0, Border: 1, Color: 0.5, Diameter: 1}, cfg)
}

func TestNewThresholdConfig_InRangeUnchanged(t *testing.T) {
	cfg := NewThresholdConfig(0.1, 0.2, 0.3, 0.4)

	assert.Equal(t, ThresholdConfig{Asymmetry: 0.1, Border: 0.2, Color: 0.3, Diameter: 0.4}, cfg)
}

func TestMode_Labels(t *testing.T) {
	tests := []struct {
		mode     Mode
		positive string
		negative string
	}{
		{ModeSkinCancer, LabelMalignant, LabelBenign},
		{ModeEczema, LabelEczema, LabelNoEczema},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			pos, neg := tt.mode.Labels()
			assert.Equal(t, tt.positive, pos)
			assert.Equal(t, tt.negative, neg)
			assert.True(t, tt.mode.HasLabel(pos))
			assert.True(t, tt.mode.HasLabel(neg))
			assert.True(t, tt.mode.Valid())
		})
	}

	assert.False(t, ModeSkinCancer.HasLabel(LabelEczema))
	assert.False(t, Mode("psoriasis").Valid())
}
