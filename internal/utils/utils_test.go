package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exact", TruncateString("exact", 5))
	assert.Equal(t, "lon…", TruncateString("longer", 3))
	// Truncation must not split multi-byte runes.
	assert.Equal(t, "héll…", TruncateString("héllo wörld", 4))
}

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	SetLogLevel("debug")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	SetLogLevel("warn")
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	SetLogLevel("WARNING")
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
}
