package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	berlin  = Point{Lat: 52.5200, Lon: 13.4050}
	munich  = Point{Lat: 48.1351, Lon: 11.5820}
	potsdam = Point{Lat: 52.3906, Lon: 13.0645}
)

func TestDistance_Zero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(berlin, berlin))
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]Point{{berlin, munich}, {munich, potsdam}, {Point{Lat: -33.86, Lon: 151.2}, Point{Lat: 40.71, Lon: -74.0}}}
	for _, p := range pairs {
		assert.InDelta(t, Distance(p[0], p[1]), Distance(p[1], p[0]), 1e-9)
	}
}

func TestDistance_KnownValues(t *testing.T) {
	assert.InDelta(t, 504, Distance(berlin, munich), 2)
	assert.InDelta(t, 27, Distance(berlin, potsdam), 1)
}
