// Package scope provides configuration value resolution by contract
// identity. Lookup keys are fully-qualified contract names, namespace
// wildcards ("Billing.*"), or the global wildcard ("*"); exactly one entry
// wins per lookup, by specificity.
package scope

import (
	"strings"
	"time"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// DirectTarget is a named direct-request entry.
type DirectTarget struct {
	URL    string
	Method string
}

// Settings is the resolved configuration snapshot consulted per dispatch.
// Snapshots are immutable; hot reload swaps the whole value.
type Settings struct {
	// Endpoints maps contract identities and wildcard patterns to base
	// URIs. Keys are case-sensitive.
	Endpoints map[string]string

	// Debug surfaces constructed messages and raw responses to the
	// observability sink.
	Debug bool

	// Timeout is the hard deadline for one HTTP execution.
	Timeout time.Duration

	// Direct maps lookup names to direct-request targets.
	Direct map[string]DirectTarget

	// DirectBaseURL prefixes relative direct-request URLs.
	DirectBaseURL string
}

// HTTPSettings returns the snapshot itself, letting a fixed Settings
// value serve as a settings source where hot reload is not needed.
func (s Settings) HTTPSettings() Settings { return s }

// ResolvedTimeout returns the configured timeout or the default.
func (s Settings) ResolvedTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

// Resolve looks up the value for a contract identity. Priority order,
// first match wins:
//
//  1. exact contract identity
//  2. longest matching namespace wildcard ("Ns.Sub.*" before "Ns.*")
//  3. global wildcard "*"
//
// Entries do not merge; the single winning entry's value is returned.
func Resolve(entries map[string]string, identity string) (string, bool) {
	if v, ok := entries[identity]; ok {
		return v, true
	}

	bestLen := -1
	var bestVal string
	for key, val := range entries {
		if key == "*" || !strings.HasSuffix(key, ".*") {
			continue
		}
		prefix := strings.TrimSuffix(key, "*")
		if strings.HasPrefix(identity, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			bestVal = val
		}
	}
	if bestLen >= 0 {
		return bestVal, true
	}

	if v, ok := entries["*"]; ok {
		return v, true
	}
	return "", false
}

// BaseURI resolves the base URI for a contract identity.
func (s Settings) BaseURI(identity string) (string, bool) {
	return Resolve(s.Endpoints, identity)
}
