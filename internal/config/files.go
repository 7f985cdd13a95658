package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Files looked up, in order, when no config file is given
var DefaultConfigFiles = []string{"~/.gw2_discord_webhooks", "/etc/gw2_discord_webhooks"}

// Read a config file into a flat map of keys to values.
// Files ending in .yaml or .yml are YAML, anything else is ini-like:
// one "key=value" or "key: value" per line, bare keys are booleans
// and sections are flattened
func readConfigFile(filename string) (map[string]interface{}, error) {

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return readYAML(filename)
	default:
		return readINI(filename)
	}
}

func readINI(filename string) (map[string]interface{}, error) {

	file, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", filename)
	}
	values := map[string]interface{}{}
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			values[strings.ToLower(key.Name())] = key.Value()
		}
	}
	return values, nil
}

func readYAML(filename string) (map[string]interface{}, error) {

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", filename)
	}
	var document map[string]interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", filename)
	}

	values := map[string]interface{}{}
	var flatten func(map[string]interface{})
	flatten = func(m map[string]interface{}) {
		for key, value := range m {
			switch v := value.(type) {
			case map[string]interface{}:
				flatten(v)
			case []interface{}:
				parts := make([]string, len(v))
				for i, part := range v {
					parts[i] = fmt.Sprint(part)
				}
				values[strings.ToLower(key)] = strings.Join(parts, ",")
			case nil:
			default:
				values[strings.ToLower(key)] = fmt.Sprint(v)
			}
		}
	}
	flatten(document)
	return values, nil
}

// First config file to use: the one given, else the first default that exists
func findConfigFile(given string) (string, error) {

	if given != "" {
		if _, err := os.Stat(expandHome(given)); err != nil {
			return "", errors.Wrapf(err, "config file %s", given)
		}
		return expandHome(given), nil
	}
	for _, candidate := range DefaultConfigFiles {
		filename := expandHome(candidate)
		if info, err := os.Stat(filename); err == nil && !info.IsDir() {
			return filename, nil
		}
	}
	return "", nil
}

func expandHome(filename string) string {
	if !strings.HasPrefix(filename, "~/") {
		return filename
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	return filepath.Join(home, filename[2:])
}
