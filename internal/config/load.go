package config

import (
	"fmt"
	"go/types"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stellar/go/support/errors"
)

// envVarName returns the environment variable ledgerctl reads for this
// option, defaulting to LEDGERCTL_<NAME> when EnvVar is unset.
func (o *ConfigOption) envVarName() string {
	if o.EnvVar != "" {
		return o.EnvVar
	}
	return "LEDGERCTL_" + strings.ToUpper(strings.ReplaceAll(o.Name, "-", "_"))
}

// BindFlags registers every option as a persistent flag on flags, seeded
// with its DefaultValue. Options with a CustomSetValue (log-level,
// log-format) are bound as plain strings; their CustomSetValue converts the
// flag's string value during Load.
func (cfg *Config) BindFlags(flags *pflag.FlagSet) {
	for _, option := range cfg.options() {
		if option.CustomSetValue != nil {
			def := ""
			if s, ok := option.DefaultValue.(fmt.Stringer); ok {
				def = s.String()
			} else if s, ok := option.DefaultValue.(string); ok {
				def = s
			}
			flags.String(option.Name, def, option.Usage)
			continue
		}
		switch key := option.ConfigKey.(type) {
		case *string:
			def, _ := option.DefaultValue.(string)
			flags.StringVar(key, option.Name, def, option.Usage)
		case *bool:
			def, _ := option.DefaultValue.(bool)
			flags.BoolVar(key, option.Name, def, option.Usage)
		case *uint:
			def, _ := option.DefaultValue.(uint)
			flags.UintVar(key, option.Name, def, option.Usage)
		default:
			panic(fmt.Sprintf("BindFlags: unhandled config option type for %s", option.Name))
		}
	}
}

// Load applies, in priority order from lowest to highest, built-in
// defaults, the TOML file at ConfigPath (if any), environment variables,
// and explicitly-set flags in flags, then validates the result.
func (cfg *Config) Load(flags *pflag.FlagSet) error {
	if err := cfg.loadDefaults(); err != nil {
		return err
	}

	if f := flags.Lookup("config-path"); f != nil && f.Changed {
		cfg.ConfigPath = f.Value.String()
	}
	if f := flags.Lookup("config-strict"); f != nil && f.Changed {
		b, err := strconv.ParseBool(f.Value.String())
		if err != nil {
			return errors.Wrap(err, "could not parse config-strict")
		}
		cfg.Strict = b
	}

	if cfg.ConfigPath != "" {
		file, err := os.Open(cfg.ConfigPath)
		if err != nil {
			return errors.Wrap(err, "could not open config file")
		}
		defer file.Close()
		if err := parseToml(file, cfg.Strict, cfg); err != nil {
			return err
		}
	}

	for _, option := range cfg.options() {
		if option.Name == "config-path" || option.Name == "config-strict" {
			continue
		}
		if v, ok := os.LookupEnv(option.envVarName()); ok {
			if err := option.setFromString(v); err != nil {
				return errors.Wrapf(err, "could not set %s from %s", option.Name, option.envVarName())
			}
		}
		f := flags.Lookup(option.Name)
		if f == nil || !f.Changed {
			continue
		}
		if err := option.setFromString(f.Value.String()); err != nil {
			return errors.Wrapf(err, "could not set %s", option.Name)
		}
	}

	return cfg.options().Validate()
}

// setFromString applies raw, a string-typed value from a flag or
// environment variable, converting it to the option's declared OptType
// first unless CustomSetValue already knows how to parse strings itself.
func (o *ConfigOption) setFromString(raw string) error {
	if o.CustomSetValue != nil {
		return o.setValue(raw)
	}
	v, err := convertForOptType(o, raw)
	if err != nil {
		return err
	}
	return o.setValue(v)
}

func convertForOptType(o *ConfigOption, raw string) (interface{}, error) {
	switch o.OptType {
	case types.String:
		return raw, nil
	case types.Bool:
		return strconv.ParseBool(raw)
	case types.Uint:
		v, err := strconv.ParseUint(raw, 10, 64)
		return uint(v), err
	default:
		return nil, fmt.Errorf("unsupported option type for %s", o.Name)
	}
}
