package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// loadEnvFile loads path into the process environment without replacing
// variables that are already set. When no --env-file was given, a missing
// DefaultEnvFile is ignored.
func loadEnvFile(flags *flag.FlagSet, path string) error {
	explicit := isFlagSet(flags, "env-file")
	if !explicit {
		path = getEnvString("ENV_FILE", DefaultEnvFile)
		explicit = path != DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.NewConfigError("load env file %s: %v", path, err)
	}
	return nil
}

// loadYAML reads a flat YAML mapping whose keys are long flag names. Scalar
// values are returned in their YAML text form. An empty path yields no
// settings.
func loadYAML(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("read config file: %v", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewConfigError("parse config file %s: %v", path, err)
	}
	settings := map[string]string{}
	if len(doc.Content) == 0 {
		return settings, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, apperrors.NewConfigError("config file %s: expected a mapping of option names", path)
	}
	known := knownKeys()
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if !known[k.Value] {
			return nil, apperrors.NewConfigError("config file %s line %d: unknown option %q", path, k.Line, k.Value)
		}
		if v.Kind != yaml.ScalarNode {
			return nil, apperrors.NewConfigError("config file %s line %d: %q must be a scalar", path, v.Line, k.Value)
		}
		settings[k.Value] = v.Value
	}
	return settings, nil
}

func knownKeys() map[string]bool {
	keys := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		keys[o.flags[0]] = true
	}
	return keys
}

// String summarizes the main settings for debug logs.
func (c AppConfig) String() string {
	return fmt.Sprintf("catalog=%s output=%s workers=%d radius=%g\" z-max=%g limit=%d endpoint=%s",
		c.Catalog, c.Output, c.Workers, c.Radius, c.RedshiftCeiling, c.Limit, c.Endpoint)
}
