// Package envutil reads process flags that must be known before config is loaded.
package envutil

import (
	"os"
	"strings"
)

// Bool parses name as a boolean flag. Unset or unrecognized values yield def.
func Bool(name string, def bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
