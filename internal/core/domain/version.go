package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Version is a SemVer 2.0.0 version. Build metadata is kept for display but
// ignored by Compare and Equal.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	// Prerelease holds the dot-separated prerelease identifiers, nil for a release.
	Prerelease []string
	Build      string
}

// NewVersion returns the release version major.minor.patch.
func NewVersion(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// MustParseVersion is like ParseVersion but panics on error. Intended for tests and constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseVersion parses a full SemVer version. A leading "v" or "=" is accepted.
func ParseVersion(s string) (Version, error) {
	text := strings.TrimSpace(s)
	text = strings.TrimPrefix(text, "=")
	text = strings.TrimPrefix(text, "v")

	var v Version
	if idx := strings.IndexByte(text, '+'); idx >= 0 {
		v.Build = text[idx+1:]
		text = text[:idx]
		if !validIdentifiers(v.Build, false) {
			return Version{}, Annotate(ErrInvalidVersionSyntax, "version", s)
		}
	}
	if idx := strings.IndexByte(text, '-'); idx >= 0 {
		pre := text[idx+1:]
		text = text[:idx]
		if !validIdentifiers(pre, true) {
			return Version{}, Annotate(ErrInvalidVersionSyntax, "version", s)
		}
		v.Prerelease = strings.Split(pre, ".")
	}

	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return Version{}, Annotate(ErrInvalidVersionSyntax, "version", s)
	}
	nums := [3]uint64{}
	for i, p := range parts {
		n, ok := parseNumeric(p)
		if !ok {
			return Version{}, Annotate(ErrInvalidVersionSyntax, "version", s)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	return v, nil
}

// parseNumeric parses a numeric identifier without leading zeros.
func parseNumeric(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// validIdentifiers checks a dot-separated identifier list. Numeric prerelease
// identifiers must not carry leading zeros.
func validIdentifiers(s string, prerelease bool) bool {
	if s == "" {
		return false
	}
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return false
		}
		numeric := true
		for i := range len(id) {
			c := id[i]
			switch {
			case c >= '0' && c <= '9':
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
				numeric = false
			default:
				return false
			}
		}
		if prerelease && numeric && len(id) > 1 && id[0] == '0' {
			return false
		}
	}
	return true
}

// IsPrerelease reports whether v carries prerelease identifiers.
func (v Version) IsPrerelease() bool {
	return len(v.Prerelease) > 0
}

// Release returns v without prerelease or build metadata.
func (v Version) Release() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0 && len(v.Prerelease) == 0 && v.Build == ""
}

// String renders the canonical form of v.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.Major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Minor, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Patch, 10))
	if len(v.Prerelease) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.Prerelease, "."))
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Compare orders versions by SemVer precedence: -1, 0 or +1.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, o.Patch); c != 0 {
		return c
	}
	return comparePrerelease(v.Prerelease, o.Prerelease)
}

// Equal reports precedence equality.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v has lower precedence than o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func comparePrerelease(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareIdentifier(a, b string) int {
	an, aNum := parseNumeric(a)
	bn, bNum := parseNumeric(b)
	switch {
	case aNum && bNum:
		return cmp.Compare(an, bn)
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortVersions sorts versions ascending by precedence.
func SortVersions(versions []Version) {
	slices.SortStableFunc(versions, Version.Compare)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
