package commands

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", TruncateString("héllo wörld!", 10))
}

func TestHumanizeKey(t *testing.T) {
	assert.Equal(t, "Cache Redis Host", humanizeKey("cache.redis.host"))
	assert.Equal(t, "Base Url", humanizeKey("base_url"))
}

func TestParsePostID(t *testing.T) {
	id, err := parsePostID("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, arg := range []string{"", "-1", "0", "1.5", "one"} {
		_, err := parsePostID(arg)
		require.ErrorIs(t, err, constants.ErrInvalidPostID, arg)
	}
}

func TestOutputFormat(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	original := stdoutIsTerminal
	t.Cleanup(func() { stdoutIsTerminal = original })

	stdoutIsTerminal = func() bool { return true }
	format, err := outputFormat()
	require.NoError(t, err)
	assert.Equal(t, constants.FormatTable, format)

	stdoutIsTerminal = func() bool { return false }
	format, err = outputFormat()
	require.NoError(t, err)
	assert.Equal(t, constants.FormatJSON, format)

	viper.Set(OutputKey, "YAML")
	format, err = outputFormat()
	require.NoError(t, err)
	assert.Equal(t, constants.FormatYAML, format)

	viper.Set(OutputKey, "csv")
	_, err = outputFormat()
	require.ErrorIs(t, err, constants.ErrInvalidOutput)
}
