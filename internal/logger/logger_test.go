package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupAppliesLevel(t *testing.T) {
	Setup("warn", "json")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Setup("DEBUG", "json")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	Setup("nonsense", "pretty")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
