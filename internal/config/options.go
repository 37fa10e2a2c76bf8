package config

import (
	"fmt"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stellar/go/support/errors"
)

// Config is the full set of tunables for a ledgerctl process: where the
// backing SQLite file lives, how large the transaction overlay's caches
// are, and how the process logs.
type Config struct {
	ConfigPath string
	Strict     bool

	SQLiteDBPath string

	EntryCacheSize      uint
	BestOffersCacheSize uint
	EnforceMeta         bool

	LogLevel  logrus.Level
	LogFormat LogFormat

	optionsCache *ConfigOptions
}

// ConfigOption is a complete description of the configuration of a command
// line option.
type ConfigOption struct {
	Name           string                                 // e.g. "db-path"
	EnvVar         string                                 // e.g. "LEDGERCTL_DB_PATH". Defaults to "LEDGERCTL_" plus the uppercase/underscore representation of Name
	TomlKey        string                                 // e.g. "DB_PATH". "-" to omit from toml
	Usage          string                                 // Help text
	OptType        types.BasicKind                         // The type of this option, e.g. types.Bool
	DefaultValue   interface{}                             // A default if no option is provided. Omit or set to nil if no default
	ConfigKey      interface{}                             // Pointer to the final key in the linked Config struct
	CustomSetValue func(*ConfigOption, interface{}) error  // Optional function for custom validation/transformation
	Validate       func(*ConfigOption) error                // Function called after loading all options, to validate the configuration
	MarshalTOML    func(*ConfigOption) (interface{}, error)
}

func (o *ConfigOption) getTomlKey() string {
	if o.TomlKey != "" {
		return o.TomlKey
	}
	if o.EnvVar != "" && o.EnvVar != "-" {
		return o.EnvVar
	}
	return strings.ToUpper(strings.ReplaceAll(o.Name, "-", "_"))
}

func (o *ConfigOption) setValue(i interface{}) error {
	if o.CustomSetValue != nil {
		return o.CustomSetValue(o, i)
	}
	dst := reflect.ValueOf(o.ConfigKey).Elem()
	v := reflect.ValueOf(i)
	// TOML integers decode as int64; convert them to the option's integer type.
	if v.Kind() != dst.Kind() && v.CanInt() && (dst.CanInt() || dst.CanUint()) {
		if dst.CanUint() && v.Int() < 0 {
			return fmt.Errorf("%s must not be negative", o.Name)
		}
		v = v.Convert(dst.Type())
	}
	dst.Set(v)
	return nil
}

func (o *ConfigOption) marshalTOML() (interface{}, error) {
	if o.MarshalTOML != nil {
		return o.MarshalTOML(o)
	}
	// go-toml doesn't handle ints other than `int`, so we have to do that ourselves.
	switch v := o.ConfigKey.(type) {
	case *int, *int8, *int16, *int32, *int64:
		return []byte(strconv.FormatInt(reflect.ValueOf(v).Elem().Int(), 10)), nil
	case *uint, *uint8, *uint16, *uint32, *uint64:
		return []byte(strconv.FormatUint(reflect.ValueOf(v).Elem().Uint(), 10)), nil
	default:
		return reflect.ValueOf(o.ConfigKey).Elem().Interface(), nil
	}
}

// ConfigOptions is a group of ConfigOptions that can be for convenience
// initialized and set at the same time.
type ConfigOptions []*ConfigOption

// options returns (and memoizes) the set of config options bound to cfg's
// fields.
func (cfg *Config) options() ConfigOptions {
	if cfg.optionsCache != nil {
		return *cfg.optionsCache
	}
	cfg.optionsCache = &ConfigOptions{
		{
			Name:    "config-path",
			EnvVar:  "LEDGERCTL_CONFIG_PATH",
			TomlKey: "-",
			Usage:   "File path to the toml configuration file",
			OptType: types.String,
			ConfigKey: &cfg.ConfigPath,
		},
		{
			Name:         "config-strict",
			EnvVar:       "LEDGERCTL_CONFIG_STRICT",
			TomlKey:      "STRICT",
			Usage:        "Enable strict toml configuration file parsing",
			OptType:      types.Bool,
			ConfigKey:    &cfg.Strict,
			DefaultValue: false,
		},
		{
			Name:         "db-path",
			Usage:        "Path to the SQLite file backing the ledger store",
			OptType:      types.String,
			ConfigKey:    &cfg.SQLiteDBPath,
			DefaultValue: "ledgertxn.sqlite",
			Validate:     required,
		},
		{
			Name:         "entry-cache-size",
			Usage:        "Number of entries kept in the root's entry LRU cache. 0 disables the cache",
			OptType:      types.Uint,
			ConfigKey:    &cfg.EntryCacheSize,
			DefaultValue: uint(50000),
		},
		{
			Name:         "best-offers-cache-size",
			Usage:        "Number of (buying, selling) asset pairs kept in the root's best-offers LRU cache. 0 disables the cache",
			OptType:      types.Uint,
			ConfigKey:    &cfg.BestOffersCacheSize,
			DefaultValue: uint(1000),
		},
		{
			Name:         "enforce-meta",
			Usage:        "Validate lastModifiedLedgerSeq bookkeeping on every commit; disable only for throwaway/benchmark trees",
			OptType:      types.Bool,
			ConfigKey:    &cfg.EnforceMeta,
			DefaultValue: true,
		},
		{
			Name:         "log-level",
			Usage:        "minimum log severity (debug, info, warn, error) to log",
			OptType:      types.String,
			ConfigKey:    &cfg.LogLevel,
			DefaultValue: logrus.InfoLevel,
			CustomSetValue: func(option *ConfigOption, i interface{}) error {
				switch v := i.(type) {
				case nil:
					return nil
				case string:
					ll, err := logrus.ParseLevel(v)
					if err != nil {
						return fmt.Errorf("could not parse %s: %q", option.Name, v)
					}
					cfg.LogLevel = ll
					return nil
				case logrus.Level:
					cfg.LogLevel = v
					return nil
				default:
					return fmt.Errorf("could not parse %s: %q", option.Name, v)
				}
			},
			MarshalTOML: func(option *ConfigOption) (interface{}, error) {
				return cfg.LogLevel.String(), nil
			},
		},
		{
			Name:         "log-format",
			Usage:        "format used for output logs (json or text)",
			OptType:      types.String,
			ConfigKey:    &cfg.LogFormat,
			DefaultValue: LogFormat(LogFormatText).String(),
			CustomSetValue: func(option *ConfigOption, i interface{}) error {
				switch v := i.(type) {
				case nil:
					return nil
				case string:
					return errors.Wrapf(
						cfg.LogFormat.UnmarshalText([]byte(v)),
						"could not parse %s",
						option.Name,
					)
				default:
					return fmt.Errorf("could not parse %s: %q", option.Name, v)
				}
			},
			MarshalTOML: func(option *ConfigOption) (interface{}, error) {
				return cfg.LogFormat.String(), nil
			},
		},
	}
	return *cfg.optionsCache
}

// loadDefaults sets every option on cfg to its DefaultValue, ignoring options
// with no default.
func (cfg *Config) loadDefaults() error {
	for _, option := range cfg.options() {
		if option.DefaultValue == nil {
			continue
		}
		if err := option.setValue(option.DefaultValue); err != nil {
			return errors.Wrapf(err, "could not set default for %s", option.Name)
		}
	}
	return nil
}

func (options ConfigOptions) Validate() error {
	for _, option := range options {
		if option.Validate != nil {
			if err := option.Validate(option); err != nil {
				return errors.Wrap(err, fmt.Sprintf("invalid config value for %s", option.Name))
			}
		}
	}
	return nil
}

func required(option *ConfigOption) error {
	if !reflect.ValueOf(option.ConfigKey).Elem().IsZero() {
		return nil
	}

	var waysToSet []string
	if option.Name != "" && option.Name != "-" {
		waysToSet = append(waysToSet, fmt.Sprintf("specify --%s on the command line", option.Name))
	}
	if option.EnvVar != "" && option.EnvVar != "-" {
		waysToSet = append(waysToSet, fmt.Sprintf("set the %s environment variable", option.EnvVar))
	}
	if option.getTomlKey() != "-" {
		waysToSet = append(waysToSet, fmt.Sprintf("set %s in the config file", option.getTomlKey()))
	}

	advice := ""
	switch len(waysToSet) {
	case 1:
		advice = fmt.Sprintf(" Please %s.", waysToSet[0])
	case 2:
		advice = fmt.Sprintf(" Please %s or %s.", waysToSet[0], waysToSet[1])
	case 3:
		advice = fmt.Sprintf(" Please %s, %s, or %s.", waysToSet[0], waysToSet[1], waysToSet[2])
	}

	return fmt.Errorf("%s is required.%s", option.Name, advice)
}
