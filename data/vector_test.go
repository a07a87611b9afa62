package data_test

import (
	"testing"

	"github.com/amonks/soundscout/data"
	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	a := data.Vector{"energetic": 1.4, "dark": -0.2, "melodic": 0.5}
	assert.Equal(t, data.Vector{"energetic": 1, "dark": 0, "melodic": 0.5}, a.Clamp(0, 1))
}

func TestMultiply(t *testing.T) {
	a := data.Vector{"a": 1, "b": 1}
	assert.Equal(t, data.Vector{"a": 2, "b": 2}, a.Multiply(2))
}

func TestAdd(t *testing.T) {
	a := data.Vector{"a": 1, "b": 1, "not in b": 1}
	b := data.Vector{"a": 2, "b": 2, "not in a": 2}
	assert.Equal(t, data.Vector{"a": 3, "b": 3, "not in b": 1}, a.Add(b))
}

func TestTop(t *testing.T) {
	a := data.Vector{"dark": 0.3, "melodic": 0.8, "energetic": 0.8, "calm": 0.1}
	assert.Equal(t, []string{"energetic", "melodic"}, a.Top(2))
	assert.Len(t, a.Top(10), 4)
}
