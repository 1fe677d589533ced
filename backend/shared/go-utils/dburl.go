package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// IsolatedRoleName is the per-run Postgres role used when the isolated schema
// flag is on.
func IsolatedRoleName(runnerID, runNumber string) string {
	return strings.ToLower(runnerID + "-" + runNumber)
}

// WithIsolatedRole rewrites the user of a Postgres URL to the per-run role,
// keeping the password and everything else intact.
func WithIsolatedRole(baseURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("runnerID and runNumber must be non-empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	u.User = url.UserPassword(IsolatedRoleName(runnerID, runNumber), password)

	return u.String(), nil
}
