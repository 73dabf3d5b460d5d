package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// Load reads a Settings YAML file into s, substituting ${VAR} references
// with environment variable values first. Fields absent from the file
// keep their current values, so loading over DefaultSettings yields a
// fully populated configuration.
func Load(filePath string, s *Settings) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: caller-controlled path
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "read settings file")
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), s); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "parse settings YAML")
	}
	return nil
}

// Save writes the settings to a YAML file.
func Save(filePath string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "marshal settings")
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "write settings file")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
