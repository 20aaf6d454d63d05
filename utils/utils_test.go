package utils

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	v, err := ParseThreshold(" 0.85 ")
	require.NoError(t, err)
	assert.Equal(t, 0.85, v)

	for _, bad := range []string{"abc", "1.01", "-0.5", ""} {
		_, err := ParseThreshold(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateThreshold(t *testing.T) {
	assert.NoError(t, ValidateThreshold(0))
	assert.NoError(t, ValidateThreshold(1))
	assert.Error(t, ValidateThreshold(1.0001))
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"png", "jpg"}, ParseList(" png, ,jpg,"))
	assert.Empty(t, ParseList(""))
}

func TestPrintUsage(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("metric", "pixel-diff", "Similarity metric")

	var buf bytes.Buffer
	PrintUsage(&buf, fs)

	out := buf.String()
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--metric")
	assert.Contains(t, out, "IMGCMP_")
}
