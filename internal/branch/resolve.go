package branch

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Strategy selects how existing branch names are matched against the
// desired name and how the next suffix is chosen.
type Strategy string

const (
	// StrategySubstring treats any branch containing the desired name as a
	// conflict and picks the suffix from the lexicographically last one.
	StrategySubstring Strategy = "substring"
	// StrategyStrict only matches "<name>" and "<name>-<n>" and picks the
	// numerically largest suffix.
	StrategyStrict Strategy = "strict"
)

// ParseStrategy maps a config value to a Strategy. Empty means substring.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategySubstring:
		return StrategySubstring, nil
	case StrategyStrict:
		return StrategyStrict, nil
	}
	return "", fmt.Errorf("branch: unknown strategy %q (want %q or %q)", s, StrategySubstring, StrategyStrict)
}

// Conflicts returns the names in existing that collide with desired under strategy.
func Conflicts(strategy Strategy, desired string, existing []string) []string {
	var out []string
	for _, name := range existing {
		if strategy == StrategySubstring {
			if strings.Contains(name, desired) {
				out = append(out, name)
			}
			continue
		}
		if _, ok := strictSuffix(desired, name); ok {
			out = append(out, name)
		}
	}
	return out
}

// UniqueName resolves desired against existing with the given strategy.
func UniqueName(strategy Strategy, desired string, existing []string) string {
	if strategy == StrategySubstring {
		return Resolve(desired, existing)
	}
	return ResolveStrict(desired, existing)
}

// Resolve returns a name derived from desired that is meant not to collide
// with existing. Every name containing desired counts as a conflict. With a
// single conflict the result is desired-2; otherwise the conflicts are sorted
// as strings and the last one's final "-" segment is incremented.
//
// String ordering means "foo-10" sorts before "foo-2", so the picked suffix
// is not always the largest and the result can still collide. A final
// segment that is not an integer produces "desired-NaN".
func Resolve(desired string, existing []string) string {
	conflicts := Conflicts(StrategySubstring, desired, existing)
	switch len(conflicts) {
	case 0:
		return desired
	case 1:
		return desired + "-2"
	}

	sort.Strings(conflicts)
	last := conflicts[len(conflicts)-1]
	parts := strings.Split(last, "-")
	return desired + "-" + increment(parts[len(parts)-1])
}

// increment adds one to a loosely parsed number: blank counts as zero and
// anything else that is not an integer yields "NaN". Suffixes at or beyond
// the int64 range also yield "NaN", where a floating-point conversion would
// give a large finite number instead.
func increment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "1"
	}
	n, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || n == math.MaxInt64 {
		return "NaN"
	}
	return strconv.FormatInt(n+1, 10)
}

// ResolveStrict returns desired when neither desired nor any desired-<n>
// exists, and otherwise desired-(max+1) where an exact match counts as 1.
func ResolveStrict(desired string, existing []string) string {
	highest := 0
	for _, name := range existing {
		if n, ok := strictSuffix(desired, name); ok && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return desired
	}
	return desired + "-" + strconv.Itoa(highest+1)
}

var digits = regexp.MustCompile(`^[0-9]+$`)

// strictSuffix reports whether name is desired (suffix 1) or desired-<n>.
func strictSuffix(desired, name string) (int, bool) {
	if name == desired {
		return 1, true
	}
	rest, ok := strings.CutPrefix(name, desired+"-")
	if !ok || !digits.MatchString(rest) {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
