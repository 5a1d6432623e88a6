// Package featureflags reads product toggles from FLAG_<NAME> environment variables.
package featureflags

import (
	"os"
	"strings"
)

// Flag is a named product toggle, off unless set
type Flag struct {
	Name        string
	Description string
}

var (
	// SurfaceBackendErrors shows backend failure details to dashboard users
	// instead of a generic message.
	SurfaceBackendErrors = Flag{
		Name:        "SURFACE_BACKEND_ERRORS",
		Description: "show backend failure details on the dashboard",
	}

	// ChaosBackend wraps the client store in the chaos monkey
	ChaosBackend = Flag{
		Name:        "CHAOS_BACKEND",
		Description: "randomly inject backend outages",
	}
)

// All lists every known flag
func All() []Flag {
	return []Flag{SurfaceBackendErrors, ChaosBackend}
}

// EnvKey is the environment variable holding the flag
func (f Flag) EnvKey() string {
	return "FLAG_" + strings.ToUpper(f.Name)
}

// Enabled reports whether the flag is on in the process environment
func (f Flag) Enabled() bool {
	return Enabled(f.Name)
}

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive)
func Enabled(name string) bool {
	return parse(os.Getenv("FLAG_" + strings.ToUpper(name)))
}

// Snapshot returns the state of every known flag, for startup logging
func Snapshot() map[string]bool {
	out := make(map[string]bool, len(All()))
	for _, f := range All() {
		out[f.Name] = f.Enabled()
	}
	return out
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
