// Package model contains the domain types for watched pull requests.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// prURLPattern matches canonical GitHub pull request URLs. Both ends are
// anchored so a URL with a junk suffix is rejected rather than silently
// truncated.
var prURLPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/pull/(\d+)/?$`)

// PRIdentity uniquely identifies a watched pull request. Equality is the
// exact (owner, repo, number) tuple as given by the source URL; no case
// normalization is applied.
type PRIdentity struct {
	Owner  string
	Repo   string
	Number string // Decimal digits, kept verbatim so parse/format round-trips exactly.
}

// ParsePRURL extracts a PRIdentity from a GitHub pull request URL of the form
// https://github.com/{owner}/{repo}/pull/{number}. Leading and trailing
// whitespace is ignored.
func ParsePRURL(raw string) (PRIdentity, error) {
	m := prURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return PRIdentity{}, fmt.Errorf("invalid pull request URL %q: expected https://github.com/{owner}/{repo}/pull/{number}", raw)
	}

	return PRIdentity{Owner: m[1], Repo: m[2], Number: m[3]}, nil
}

// URL returns the canonical https URL for the identity.
func (id PRIdentity) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%s", id.Owner, id.Repo, id.Number)
}

// NumberInt converts the PR number to an int for API calls.
func (id PRIdentity) NumberInt() (int, error) {
	n, err := strconv.Atoi(id.Number)
	if err != nil {
		return 0, fmt.Errorf("invalid PR number %q: %w", id.Number, err)
	}
	return n, nil
}

// String renders the identity in the compact owner/repo#number form used in logs.
func (id PRIdentity) String() string {
	return id.Owner + "/" + id.Repo + "#" + id.Number
}
