package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/marginalia/internal/logging"
)

// ErrConfiguration marks a configuration that cannot be used for a sync run.
var ErrConfiguration = errors.New("invalid configuration")

// Validate checks that every key a sync run needs is present once
// ${ENV_VAR} references are expanded. The error names all problems at once.
func (c *Config) Validate() error {
	r := c.Resolved()
	var missing, invalid []string

	if r.WeRead.Cookie == "" {
		missing = append(missing, "weread.cookie")
	}

	switch r.Target.Backend {
	case BackendNotion:
		if r.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if r.Notion.DatabaseID == "" {
			missing = append(missing, "notion.database_id")
		}
	case BackendDefra:
		if r.Defra.URL == "" {
			missing = append(missing, "defra.url")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("target.backend %q (want %s or %s)", r.Target.Backend, BackendNotion, BackendDefra))
	}

	if r.History.Enabled && r.Defra.URL == "" {
		missing = append(missing, "defra.url")
	}
	if r.Sync.BookDelay < 0 {
		invalid = append(invalid, "sync.book_delay must not be negative")
	}
	if r.Sync.Interval < 0 {
		invalid = append(invalid, "sync.interval must not be negative")
	}
	if _, err := logging.ParseLevel(r.Log.Level); err != nil {
		invalid = append(invalid, "log.level: "+err.Error())
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(dedupe(missing), ", "))
	}
	parts = append(parts, invalid...)
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(parts, "; "))
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
