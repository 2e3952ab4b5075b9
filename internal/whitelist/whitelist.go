// Package whitelist decides whether an email address may create an account.
//
// Entries are either bare email addresses ("alice@example.com") or domain patterns
// prefixed with "@" ("@example.com"). Domain patterns match the exact domain only;
// "@example.com" does not match "user@sub.example.com".
package whitelist

import "strings"

const rejectionMessage = "Your email is not authorized to create an account. Please contact an administrator."

// Config is the signup whitelist. It is built once at startup and never mutated.
type Config struct {
	// Enabled turns the gate on. When false every email is allowed.
	Enabled bool
	// Entries holds emails and @domain patterns. Matching lowercases and trims each entry.
	Entries []string
}

// NewConfig returns a Config with entries parsed from the comma-separated raw string.
func NewConfig(enabled bool, raw string) Config {
	return Config{Enabled: enabled, Entries: ParseEntries(raw)}
}

// ParseEntries splits raw on commas and returns the trimmed, non-blank entries.
// An empty string yields an empty list. Blank pieces are dropped rather than kept as
// empty entries, unlike a plain split, so a trailing comma never allows an empty email.
func ParseEntries(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsAllowed reports whether email may sign up under cfg. A bare "@" entry matches nothing.
func IsAllowed(cfg Config, email string) bool {
	if !cfg.Enabled {
		return true
	}
	if len(cfg.Entries) == 0 {
		return false
	}
	normalized := strings.ToLower(email)
	domain, hasDomain := emailDomain(normalized)
	for _, raw := range cfg.Entries {
		entry := strings.ToLower(strings.TrimSpace(raw))
		if entry == "" {
			continue
		}
		if pattern, ok := strings.CutPrefix(entry, "@"); ok {
			if hasDomain && pattern != "" && domain == pattern {
				return true
			}
			continue
		}
		if normalized == entry {
			return true
		}
	}
	return false
}

// Allows is the method form of IsAllowed.
func (c Config) Allows(email string) bool {
	return IsAllowed(c, email)
}

// RejectionMessage is the user-facing text shown when a signup is refused.
func RejectionMessage() string {
	return rejectionMessage
}

// emailDomain returns the segment after the first "@" up to any following "@".
// ok is false when email has no "@".
func emailDomain(email string) (domain string, ok bool) {
	_, rest, found := strings.Cut(email, "@")
	if !found {
		return "", false
	}
	domain, _, _ = strings.Cut(rest, "@")
	return domain, true
}
