package config

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicToml = `
DB_PATH = "/var/lib/ledgertxn/state.sqlite"
ENTRY_CACHE_SIZE = 100000

# testing comments work ok
ENFORCE_META = false
LOG_LEVEL = "debug"
`

func TestBasicTomlReading(t *testing.T) {
	cfg := Config{}
	require.NoError(t, parseToml(strings.NewReader(basicToml), false, &cfg))

	assert.Equal(t, "/var/lib/ledgertxn/state.sqlite", cfg.SQLiteDBPath)
	assert.Equal(t, uint(100000), cfg.EntryCacheSize)
	assert.Equal(t, false, cfg.EnforceMeta)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestBasicTomlReadingStrictMode(t *testing.T) {
	invalidToml := `UNKNOWN = "key"`
	cfg := Config{}

	// Should ignore unknown fields when strict is not set
	require.NoError(t, parseToml(strings.NewReader(invalidToml), false, &cfg))

	// Should error when unknown key is present and strict is set via the cli flag
	require.EqualError(
		t,
		parseToml(strings.NewReader(invalidToml), true, &cfg),
		"Invalid config: unexpected entry specified in toml file \"UNKNOWN\"",
	)

	// Should error when unknown key is present and strict is set in the config file
	invalidStrictToml := `
	STRICT = true
	UNKNOWN = "key"
`
	require.EqualError(
		t,
		parseToml(strings.NewReader(invalidStrictToml), false, &cfg),
		"Invalid config: unexpected entry specified in toml file \"UNKNOWN\"",
	)

	// It succeeds with a valid config
	require.NoError(t, parseToml(strings.NewReader(basicToml), true, &cfg))
}

func TestBasicTomlWriting(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.loadDefaults())

	outBytes, err := cfg.MarshalTOML()
	require.NoError(t, err)

	out := string(outBytes)

	assert.Contains(t, out, "DB_PATH = \"ledgertxn.sqlite\"")
	assert.Contains(t, out, "ENTRY_CACHE_SIZE = 50000")
	assert.Contains(t, out, "LOG_LEVEL = \"info\"")
	assert.Contains(t, out, "LOG_FORMAT = \"text\"")

	// Check that the output contains comments about each option
	assert.Contains(t, out, "# Path to the SQLite file backing the ledger store")
}

func TestRoundTrip(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.loadDefaults())

	for _, option := range cfg.options() {
		optType := reflect.ValueOf(option.ConfigKey).Elem().Type()
		switch option.ConfigKey.(type) {
		case *bool:
			*option.ConfigKey.(*bool) = true
		case *string:
			*option.ConfigKey.(*string) = "test"
		case *uint:
			*option.ConfigKey.(*uint) = 42
		case *logrus.Level:
			*option.ConfigKey.(*logrus.Level) = logrus.InfoLevel
		case *LogFormat:
			*option.ConfigKey.(*LogFormat) = LogFormatText
		default:
			t.Fatalf("TestRoundTrip not implemented for type %s, on option %s, please add a test value", optType.Kind(), option.Name)
		}
	}

	outBytes, err := cfg.MarshalTOML()
	require.NoError(t, err)

	require.NoError(
		t,
		parseToml(bytes.NewReader(outBytes), false, &cfg),
	)
}
