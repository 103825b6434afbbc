package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production": Production,
		" PROD ":     Production,
		"staging":    Staging,
		"test":       Testing,
		"testing":    Testing,
		"":           Development,
		"whatever":   Development,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), in)
	}
}

func TestGinMode(t *testing.T) {
	assert.Equal(t, "release", Production.GinMode())
	assert.Equal(t, "release", Staging.GinMode())
	assert.Equal(t, "test", Testing.GinMode())
	assert.Equal(t, "debug", Development.GinMode())
	assert.True(t, Production.IsProduction())
	assert.False(t, Staging.IsProduction())
}
