package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read into a Config.
const EnvPrefix = "DSGEN_"

// LoadFile overlays the YAML file at path onto c. Keys missing from the
// file leave the current values in place.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

// LoadEnv overlays DSGEN_* environment variables onto c.
func (c *Config) LoadEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	return nil
}

// Resolve layers the configuration sources: defaults, then the YAML file
// (if any), then the environment, then flags set explicitly on fs. Flags are
// bound to c, so their values are captured before the lower layers load.
func (c *Config) Resolve(fs *pflag.FlagSet, file string) error {
	changed := make(map[string]string)
	if fs != nil {
		fs.Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })
	}

	if file != "" {
		if err := c.LoadFile(file); err != nil {
			return err
		}
	}
	if err := c.LoadEnv(); err != nil {
		return err
	}
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return errors.Wrapf(err, "reapply --%s", name)
		}
	}

	c.ApplyDefaults()
	return c.Validate()
}
