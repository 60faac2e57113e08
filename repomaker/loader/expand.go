package loader

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandString expands ${VAR} references against the OS environment.
// Returns an error listing every missing variable, and rejects
// references to REPOMAKER_* variables: those configure the service
// itself and must not leak into repo or storage declarations.
func expandString(s string) (string, error) {
	var missingVars []string
	var reservedVars []string

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]

		if strings.HasPrefix(varName, "REPOMAKER_") {
			reservedVars = append(reservedVars, varName)
			return match
		}

		value, ok := os.LookupEnv(varName)
		if !ok {
			missingVars = append(missingVars, varName)
			return match
		}
		return value
	})

	if len(reservedVars) > 0 {
		return "", fmt.Errorf("REPOMAKER_* variables cannot be referenced in config files: %s", strings.Join(reservedVars, ", "))
	}
	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing OS environment variables: %s", strings.Join(missingVars, ", "))
	}

	return result, nil
}
