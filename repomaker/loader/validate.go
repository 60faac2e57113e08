package loader

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// Hostname labels per RFC 1034: 63 chars max, no leading/trailing dash.
	hostnamePattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.?$`)

	ipv4Pattern = regexp.MustCompile(`^(?:25[0-5]|2[0-4]\d|[0-1]?\d?\d)(?:\.(?:25[0-5]|2[0-4]\d|[0-1]?\d?\d)){3}$`)
	ipv6Pattern = regexp.MustCompile(`^\[[0-9a-fA-F:.]+\]$`)

	remotePathPattern = regexp.MustCompile(`^(/[a-zA-Z0-9._-]+)+/?$`)
)

// ValidUsername reports whether s is a user name consisting of letters,
// numbers, underscores or hyphens.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ValidHostname reports whether s is a hostname, an IPv4 address or a
// bracketed IPv6 address. The full name is capped at 253 characters per
// RFC 1034 section 3.1.
func ValidHostname(s string) bool {
	if len(s) > 253 {
		return false
	}
	if s == "localhost" {
		return true
	}
	return ipv4Pattern.MatchString(s) || ipv6Pattern.MatchString(s) || hostnamePattern.MatchString(s)
}

// ValidRemotePath reports whether s is an absolute remote path.
func ValidRemotePath(s string) bool {
	return remotePathPattern.MatchString(s)
}
