package domain

import (
	"regexp"
	"slices"
	"strings"
)

// Constraint is a predicate over versions: a union of ranges, each range the
// conjunction of its comparators. The zero value matches nothing.
//
// A prerelease version only satisfies a range when one of the range's
// comparators names a prerelease on the same major.minor.patch tuple.
type Constraint struct {
	raw    string
	ranges []versionRange
}

type bound struct {
	version   Version
	inclusive bool
	set       bool
}

type versionRange struct {
	lower bound
	upper bound
	// pre lists the release tuples whose prereleases this range admits.
	pre []Version
}

var hyphenRange = regexp.MustCompile(`^(\S+)\s+-\s+(\S+)$`)

// AnyConstraint returns the constraint matching every release.
func AnyConstraint() Constraint {
	return Constraint{raw: "*", ranges: []versionRange{{}}}
}

// ExactConstraint returns the constraint matching exactly v.
func ExactConstraint(v Version) Constraint {
	r := versionRange{lower: ge(v), upper: le(v)}
	if v.IsPrerelease() {
		r.pre = []Version{v.Release()}
	}
	return Constraint{raw: v.String(), ranges: []versionRange{r}}
}

// NoneConstraint returns a constraint that matches nothing and renders as raw.
func NoneConstraint(raw string) Constraint {
	return Constraint{raw: raw}
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseConstraint parses an npm-style range expression.
func ParseConstraint(s string) (Constraint, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		text = "*"
	}

	c := Constraint{raw: text}
	for branch := range strings.SplitSeq(text, "||") {
		r, err := parseBranch(strings.TrimSpace(branch))
		if err != nil {
			return Constraint{}, Annotate(ErrInvalidVersionSyntax, "constraint", s)
		}
		if !r.empty() && !slices.ContainsFunc(c.ranges, r.equal) {
			c.ranges = append(c.ranges, r)
		}
	}
	return c, nil
}

// String returns the constraint's source text, or a canonical rendering for
// constraints built by Intersect.
func (c Constraint) String() string {
	if c.raw != "" {
		return c.raw
	}
	if len(c.ranges) == 0 {
		return "<0.0.0-0"
	}
	parts := make([]string, 0, len(c.ranges))
	for _, r := range c.ranges {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " || ")
}

// IsZero reports whether c is the zero value.
func (c Constraint) IsZero() bool {
	return c.raw == "" && len(c.ranges) == 0
}

// IsEmpty reports whether no version can satisfy c.
func (c Constraint) IsEmpty() bool {
	return len(c.ranges) == 0
}

// Equal compares constraints by their textual form.
func (c Constraint) Equal(o Constraint) bool {
	return c.String() == o.String()
}

// Satisfies reports whether v is admitted by c.
func (c Constraint) Satisfies(v Version) bool {
	for _, r := range c.ranges {
		if r.contains(v) {
			return true
		}
	}
	return false
}

// Intersect returns the constraint admitting exactly the versions admitted by
// both c and o. The boolean is false when no version can satisfy the result.
func (c Constraint) Intersect(o Constraint) (Constraint, bool) {
	if c.raw != "" && c.raw == o.raw {
		return c, len(c.ranges) > 0
	}

	var out Constraint
	for _, a := range c.ranges {
		for _, b := range o.ranges {
			r := versionRange{
				lower: maxLower(a.lower, b.lower),
				upper: minUpper(a.upper, b.upper),
				pre:   intersectTuples(a.pre, b.pre),
			}
			if r.empty() || slices.ContainsFunc(out.ranges, r.equal) {
				continue
			}
			out.ranges = append(out.ranges, r)
		}
	}
	return out, len(out.ranges) > 0
}

// PickHighest returns the highest version in versions that satisfies c.
func PickHighest(versions []Version, c Constraint) (Version, bool) {
	var best Version
	found := false
	for _, v := range versions {
		if !c.Satisfies(v) {
			continue
		}
		if !found || best.Less(v) {
			best = v
			found = true
		}
	}
	return best, found
}

// MarshalText implements encoding.TextMarshaler.
func (c Constraint) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Constraint) UnmarshalText(text []byte) error {
	parsed, err := ParseConstraint(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ge(v Version) bound { return bound{version: v, inclusive: true, set: true} }
func gt(v Version) bound { return bound{version: v, set: true} }
func le(v Version) bound { return bound{version: v, inclusive: true, set: true} }
func lt(v Version) bound { return bound{version: v, set: true} }

func maxLower(a, b bound) bound {
	if !a.set {
		return b
	}
	if !b.set {
		return a
	}
	switch c := a.version.Compare(b.version); {
	case c > 0:
		return a
	case c < 0:
		return b
	}
	return bound{version: a.version, inclusive: a.inclusive && b.inclusive, set: true}
}

func minUpper(a, b bound) bound {
	if !a.set {
		return b
	}
	if !b.set {
		return a
	}
	switch c := a.version.Compare(b.version); {
	case c < 0:
		return a
	case c > 0:
		return b
	}
	return bound{version: a.version, inclusive: a.inclusive && b.inclusive, set: true}
}

func boundEqual(a, b bound) bool {
	if a.set != b.set {
		return false
	}
	return !a.set || (a.inclusive == b.inclusive && a.version.Equal(b.version))
}

func intersectTuples(a, b []Version) []Version {
	var out []Version
	for _, t := range a {
		if slices.ContainsFunc(b, t.Equal) {
			out = append(out, t)
		}
	}
	return out
}

func addTuple(tuples []Version, t Version) []Version {
	if slices.ContainsFunc(tuples, t.Equal) {
		return tuples
	}
	tuples = append(tuples, t)
	SortVersions(tuples)
	return tuples
}

func (r versionRange) contains(v Version) bool {
	if r.lower.set {
		c := v.Compare(r.lower.version)
		if c < 0 || (c == 0 && !r.lower.inclusive) {
			return false
		}
	}
	if r.upper.set {
		c := v.Compare(r.upper.version)
		if c > 0 || (c == 0 && !r.upper.inclusive) {
			return false
		}
	}
	if v.IsPrerelease() {
		return r.admitsTuple(v.Release())
	}
	return true
}

func (r versionRange) equal(o versionRange) bool {
	return boundEqual(r.lower, o.lower) &&
		boundEqual(r.upper, o.upper) &&
		slices.EqualFunc(r.pre, o.pre, Version.Equal)
}

// empty reports whether no release and no admitted prerelease falls inside r.
func (r versionRange) empty() bool {
	if r.admitsRelease() {
		return false
	}
	for _, t := range r.pre {
		if r.admitsPrereleaseOf(t) {
			return false
		}
	}
	return true
}

func (r versionRange) admitsRelease() bool {
	var lowest Version
	if r.lower.set {
		lv := r.lower.version
		switch {
		case lv.IsPrerelease():
			lowest = lv.Release()
		case r.lower.inclusive:
			lowest = lv
		default:
			lowest = NewVersion(lv.Major, lv.Minor, lv.Patch+1)
		}
	}
	if !r.upper.set {
		return true
	}
	c := lowest.Compare(r.upper.version)
	return c < 0 || (c == 0 && r.upper.inclusive)
}

func (r versionRange) admitsPrereleaseOf(t Version) bool {
	first := Version{Major: t.Major, Minor: t.Minor, Patch: t.Patch, Prerelease: []string{"0"}}
	lo := maxLower(r.lower, ge(first))
	hi := minUpper(r.upper, lt(t))
	c := lo.version.Compare(hi.version)
	return c < 0 || (c == 0 && lo.inclusive && hi.inclusive)
}

func (r versionRange) String() string {
	lower, upper := r.written()
	if !lower.set && !upper.set {
		return "*"
	}
	if lower.set && upper.set && lower.inclusive && upper.inclusive &&
		lower.version.Equal(upper.version) {
		return lower.version.String()
	}
	parts := make([]string, 0, 2)
	if lower.set {
		op := ">"
		if lower.inclusive {
			op = ">="
		}
		parts = append(parts, op+lower.version.String())
	}
	if upper.set {
		op := "<"
		if upper.inclusive {
			op = "<="
		}
		parts = append(parts, op+upper.version.String())
	}
	return strings.Join(parts, " ")
}

// written returns the bounds to render so that parsing the text yields r
// again. Naming a prerelease in a comparator admits its tuple, so a
// prerelease bound on a tuple r does not admit is moved to the equivalent
// release boundary.
func (r versionRange) written() (lower, upper bound) {
	lower, upper = r.lower, r.upper
	if lower.set && lower.version.IsPrerelease() && !r.admitsTuple(lower.version.Release()) {
		lower = ge(lower.version.Release())
	}
	if upper.set && upper.version.IsPrerelease() && !r.admitsTuple(upper.version.Release()) {
		upper = lt(upper.version.Release())
	}
	return lower, upper
}

func (r versionRange) admitsTuple(t Version) bool {
	return slices.ContainsFunc(r.pre, t.Equal)
}

// and narrows r by o. Bounds intersect while admitted prerelease tuples
// accumulate, since any comparator in a range may opt its tuple in.
func (r versionRange) and(o versionRange) versionRange {
	out := versionRange{
		lower: maxLower(r.lower, o.lower),
		upper: minUpper(r.upper, o.upper),
		pre:   slices.Clone(r.pre),
	}
	for _, t := range o.pre {
		out.pre = addTuple(out.pre, t)
	}
	return out
}

func nothing() versionRange {
	zero := Version{}
	return versionRange{lower: ge(zero), upper: lt(zero)}
}

func parseBranch(branch string) (versionRange, error) {
	if m := hyphenRange.FindStringSubmatch(branch); m != nil {
		return parseHyphen(m[1], m[2])
	}

	result := versionRange{}
	for _, tok := range tokenize(branch) {
		r, err := parseComparator(tok)
		if err != nil {
			return versionRange{}, err
		}
		result = result.and(r)
	}
	return result, nil
}

var operators = []string{">=", "<=", "~>", ">", "<", "=", "~", "^"}

// tokenize splits on whitespace and rejoins operators separated from their version.
func tokenize(branch string) []string {
	fields := strings.Fields(branch)
	tokens := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if slices.Contains(operators, f) && i+1 < len(fields) {
			f += fields[i+1]
			i++
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func splitOperator(tok string) (op, rest string) {
	for _, candidate := range operators {
		if strings.HasPrefix(tok, candidate) {
			return candidate, strings.TrimSpace(tok[len(candidate):])
		}
	}
	return "", tok
}

// partial is a possibly incomplete version such as "1", "1.2", "1.x" or "*".
type partial struct {
	major, minor, patch uint64
	// parts counts the leading numeric components, 0 to 3.
	parts int
	pre   []string
}

func (p partial) full() Version {
	return Version{Major: p.major, Minor: p.minor, Patch: p.patch, Prerelease: p.pre}
}

func (p partial) floor() Version {
	return NewVersion(p.major, p.minor, p.patch)
}

func (p partial) nextMajor() Version {
	return NewVersion(p.major+1, 0, 0)
}

func (p partial) nextMinor() Version {
	return NewVersion(p.major, p.minor+1, 0)
}

func isWildcard(s string) bool {
	return s == "x" || s == "X" || s == "*"
}

func parsePartial(s string) (partial, error) {
	text := strings.TrimPrefix(s, "v")
	if text == "" {
		return partial{}, ErrInvalidVersionSyntax
	}
	if idx := strings.IndexByte(text, '+'); idx >= 0 {
		if !validIdentifiers(text[idx+1:], false) {
			return partial{}, ErrInvalidVersionSyntax
		}
		text = text[:idx]
	}

	var p partial
	if idx := strings.IndexByte(text, '-'); idx >= 0 {
		pre := text[idx+1:]
		if !validIdentifiers(pre, true) {
			return partial{}, ErrInvalidVersionSyntax
		}
		p.pre = strings.Split(pre, ".")
		text = text[:idx]
	}

	comps := strings.Split(text, ".")
	if len(comps) > 3 {
		return partial{}, ErrInvalidVersionSyntax
	}
	wild := false
	nums := [3]uint64{}
	for i, comp := range comps {
		if isWildcard(comp) {
			wild = true
			continue
		}
		n, ok := parseNumeric(comp)
		if !ok {
			return partial{}, ErrInvalidVersionSyntax
		}
		if !wild {
			nums[i] = n
			p.parts++
		}
	}
	if p.pre != nil && p.parts != 3 {
		return partial{}, ErrInvalidVersionSyntax
	}
	p.major, p.minor, p.patch = nums[0], nums[1], nums[2]
	return p, nil
}

func parseComparator(tok string) (versionRange, error) {
	op, rest := splitOperator(tok)
	p, err := parsePartial(rest)
	if err != nil {
		return versionRange{}, err
	}

	var r versionRange
	switch op {
	case "", "=":
		r = xRange(p)
	case "~", "~>":
		r = tildeRange(p)
	case "^":
		r = caretRange(p)
	case ">":
		switch p.parts {
		case 3:
			r.lower = gt(p.full())
		case 2:
			r.lower = ge(p.nextMinor())
		case 1:
			r.lower = ge(p.nextMajor())
		default:
			return nothing(), nil
		}
	case ">=":
		if p.parts > 0 {
			r.lower = ge(p.full())
		}
	case "<":
		if p.parts == 0 {
			return nothing(), nil
		}
		r.upper = lt(p.full())
	case "<=":
		switch p.parts {
		case 3:
			r.upper = le(p.full())
		case 2:
			r.upper = lt(p.nextMinor())
		case 1:
			r.upper = lt(p.nextMajor())
		}
	}

	if p.pre != nil {
		r.pre = []Version{p.floor()}
	}
	return r, nil
}

func xRange(p partial) versionRange {
	switch p.parts {
	case 3:
		return versionRange{lower: ge(p.full()), upper: le(p.full())}
	case 2:
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMinor())}
	case 1:
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMajor())}
	}
	return versionRange{}
}

func tildeRange(p partial) versionRange {
	switch p.parts {
	case 3:
		return versionRange{lower: ge(p.full()), upper: lt(p.nextMinor())}
	case 2:
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMinor())}
	case 1:
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMajor())}
	}
	return versionRange{}
}

func caretRange(p partial) versionRange {
	switch p.parts {
	case 3:
		var upper Version
		switch {
		case p.major > 0:
			upper = p.nextMajor()
		case p.minor > 0:
			upper = p.nextMinor()
		default:
			upper = NewVersion(0, 0, p.patch+1)
		}
		return versionRange{lower: ge(p.full()), upper: lt(upper)}
	case 2:
		if p.major > 0 {
			return versionRange{lower: ge(p.floor()), upper: lt(p.nextMajor())}
		}
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMinor())}
	case 1:
		return versionRange{lower: ge(p.floor()), upper: lt(p.nextMajor())}
	}
	return versionRange{}
}

func parseHyphen(from, to string) (versionRange, error) {
	a, err := parsePartial(from)
	if err != nil {
		return versionRange{}, err
	}
	b, err := parsePartial(to)
	if err != nil {
		return versionRange{}, err
	}

	var r versionRange
	if a.parts > 0 {
		r.lower = ge(a.full())
	}
	switch b.parts {
	case 3:
		r.upper = le(b.full())
	case 2:
		r.upper = lt(b.nextMinor())
	case 1:
		r.upper = lt(b.nextMajor())
	}
	if a.pre != nil {
		r.pre = addTuple(r.pre, a.floor())
	}
	if b.pre != nil {
		r.pre = addTuple(r.pre, b.floor())
	}
	return r, nil
}
