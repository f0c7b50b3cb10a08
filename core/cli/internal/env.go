package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// envPlaceholder matches {{ env.NAME }} in config files.
var envPlaceholder = regexp.MustCompile(`\{\{\s*env\.(\w+)\s*\}\}`)

// SubstituteEnvVars replaces {{ env.NAME }} placeholders using lookup. A
// placeholder naming an unset variable is an error, so a config file never
// silently connects with an empty password.
func SubstituteEnvVars(value string, lookup func(string) (string, bool)) (string, error) {
	result := value
	seen := make(map[string]bool)

	for _, match := range envPlaceholder.FindAllStringSubmatch(value, -1) {
		placeholder, name := match[0], match[1]
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		envValue, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("environment variable '%s' referenced in config file is not set", name)
		}
		result = strings.ReplaceAll(result, placeholder, envValue)
	}
	return result, nil
}
