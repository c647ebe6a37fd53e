package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownCityPairs(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		wantKm     float64
		tolerance  float64
	}{
		{"Mumbai to Pune", 19.0760, 72.8777, 18.5204, 73.8567, 120, 3},
		{"Mumbai to Thane", 19.0760, 72.8777, 19.2183, 72.9781, 19, 2},
		{"London to Paris", 51.5074, -0.1278, 48.8566, 2.3522, 344, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestDistanceIdenticalPointsIsZero(t *testing.T) {
	assert.Zero(t, Distance(19.0760, 72.8777, 19.0760, 72.8777))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(19.0760, 72.8777, 18.5204, 73.8567)
	b := Distance(18.5204, 73.8567, 19.0760, 72.8777)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceMonotonicAlongMeridian(t *testing.T) {
	base := Distance(19.0, 72.9, 19.1, 72.9)
	farther := Distance(19.0, 72.9, 19.3, 72.9)
	assert.Less(t, base, farther)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
	assert.False(t, ValidCoordinates(0, math.Inf(1)))
}
