// Package config resolves the settings of a nesting run from defaults, an
// optional config file, NESTCUT_ environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/piwi3910/NestCut/internal/importer"
	"github.com/piwi3910/NestCut/internal/model"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NESTCUT"

// DefaultName is the config file looked up in the working directory when
// no explicit path is given.
const DefaultName = "nestcut"

// Config is the resolved configuration of one run.
type Config struct {
	model.NestSettings `mapstructure:",squash"`

	OutlineLayer string    `mapstructure:"outline_layer" validate:"required"`
	Log          LogConfig `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"` // MB
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"` // days
	Compress   bool   `mapstructure:"compress"`
}

// Load resolves a Config. base supplies the lowest-precedence settings,
// usually model.DefaultSettings() or the settings of a job file. When path
// is empty an optional nestcut.* file in the working directory is read.
// Flags whose name matches a config key (dashes for underscores) override
// every other source once set on the command line.
func Load(path string, base model.NestSettings, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	if err := setDefaults(v, base); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config error: %w", err)
		}
	} else {
		v.SetConfigName(DefaultName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config error: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config error: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and that the G-code profile exists.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.GCodeProfile != "" && !slices.Contains(model.GetProfileNames(), c.GCodeProfile) {
		return fmt.Errorf("config validation failed: unknown gcode profile %q", c.GCodeProfile)
	}
	return nil
}

// setDefaults registers every settings key with its base value. Viper only
// consults the environment for keys it already knows, so this also makes
// NESTCUT_SHEET_WIDTH and friends visible to Unmarshal.
func setDefaults(v *viper.Viper, base model.NestSettings) error {
	data, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("failed to encode default settings: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to decode default settings: %w", err)
	}
	for key, value := range values {
		v.SetDefault(key, value)
	}

	v.SetDefault("outline_layer", importer.DefaultOutlineLayer)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	known := v.AllKeys()
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key := FlagKey(f.Name)
		if !slices.Contains(known, key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// FlagKey maps a flag name such as "sheet-width" or "log-file" to its
// config key.
func FlagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}
