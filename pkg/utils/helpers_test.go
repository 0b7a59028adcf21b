package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 0.1235, RoundTo(0.123456, 4))
	assert.Equal(t, 3.0, RoundTo(2.96, 1))
}

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "Austin", FirstToken("Austin TX"))
	assert.Equal(t, "Boston", FirstToken("Boston"))
	assert.Equal(t, "", FirstToken(""))
	assert.Equal(t, "", FirstToken(" leading"))
}
