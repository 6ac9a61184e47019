package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0, 0},
		{1.234, 1.23},
		{1.236, 1.24},
		{5.333333, 5.33},
		{-2.346, -2.35},
		{100, 100},
		{1.115, 1.11},
		{1.005, 1.0},
		{0.125, 0.13},
		{-0.125, -0.13},
		{2.675, 2.67},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, round2(tt.input), 1e-9, "input=%v", tt.input)
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-3, 0, 10))
	assert.Equal(t, 10.0, clip(12, 0, 10))
	assert.Equal(t, 4.5, clip(4.5, 0, 10))
}

func TestMeanAbsDeviation(t *testing.T) {
	assert.Equal(t, 0.0, meanAbsDeviation(nil))
	assert.Equal(t, 0.0, meanAbsDeviation([]float64{4, 4, 4}))
	assert.Equal(t, 2.5, meanAbsDeviation([]float64{1, 6}))
	assert.Equal(t, 1.0, meanAbsDeviation([]float64{1, 2, 3, 4}))
}

func TestMeanPresent(t *testing.T) {
	assert.Nil(t, meanPresent(nil))
	assert.Nil(t, meanPresent([]*float64{nil, nil}))

	m := meanPresent([]*float64{fp(1), nil, fp(2), fp(0)})
	require.NotNil(t, m)
	assert.Equal(t, 1.0, *m)
}
