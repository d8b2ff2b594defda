package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  []float32
	}{
		{
			name:  "unit vector unchanged",
			input: []float32{1, 0, 0},
			want:  []float32{1, 0, 0},
		},
		{
			name:  "scales to unit length",
			input: []float32{3, 4},
			want:  []float32{0.6, 0.8},
		},
		{
			name:  "zero vector stays zero",
			input: []float32{0, 0, 0},
			want:  []float32{0, 0, 0},
		},
		{
			name:  "empty vector",
			input: []float32{},
			want:  []float32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVector(tt.input)
			assert.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 0.0001)
			}
		})
	}
}

func TestNormalizeVector_ResultHasUnitMagnitude(t *testing.T) {
	v := NormalizeVector([]float32{2.5, -1.3, 0.7, 4.1})

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 0.0001)
}

func TestNormalizeVector_ReturnsNewSlice(t *testing.T) {
	input := []float32{3, 4}
	NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{
			name: "orthogonal",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "identical unit vectors",
			a:    []float32{1, 0},
			b:    []float32{1, 0},
			want: 1,
		},
		{
			name: "opposite directions",
			a:    []float32{0, 1},
			b:    []float32{0, -1},
			want: -1,
		},
		{
			name: "general case",
			a:    []float32{1, 2, 3},
			b:    []float32{4, 5, 6},
			want: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}
