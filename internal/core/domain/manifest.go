package domain

import (
	"regexp"
	"strings"
)

// Manifest is the root project's package.json, reduced to what resolution needs.
type Manifest struct {
	Name    string
	Version string
	// Dependencies maps package names to their raw specifiers.
	Dependencies map[string]string
}

// Specifier is a parsed dependency specifier: either a range or a dist-tag.
type Specifier struct {
	Raw        string
	Constraint Constraint
	// Tag is set when Raw names a dist-tag such as "latest".
	Tag string
}

var distTagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

var unsupportedPrefixes = []string{
	"file:", "link:", "workspace:", "npm:", "git:", "git+", "github:",
	"http:", "https:",
}

// ParseSpecifier interprets a manifest value. Ranges take priority over tags,
// so "x" is a wildcard and not a tag.
func ParseSpecifier(raw string) (Specifier, error) {
	text := strings.TrimSpace(raw)
	for _, prefix := range unsupportedPrefixes {
		if strings.HasPrefix(text, prefix) {
			return Specifier{}, Annotate(ErrUnsupportedSpecifier, "specifier", raw)
		}
	}
	c, err := ParseConstraint(text)
	if err == nil {
		return Specifier{Raw: text, Constraint: c}, nil
	}
	if distTagPattern.MatchString(text) {
		return Specifier{Raw: text, Tag: text}, nil
	}
	return Specifier{}, err
}

// IsTag reports whether the specifier names a dist-tag.
func (s Specifier) IsTag() bool {
	return s.Tag != ""
}
