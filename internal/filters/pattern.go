// Package filters selects ensemble rows by metadata patterns and by time
// components.
package filters

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
)

// DefaultSeparator separates hierarchy levels in variable names
const DefaultSeparator = "|"

// LevelOp selects how a Level compares depths
type LevelOp int

const (
	LevelExact LevelOp = iota
	LevelAtMost
	LevelAtLeast
)

// Level restricts matches to labels at a hierarchy depth
type Level struct {
	Depth int
	Op    LevelOp
}

// ExactLevel matches labels exactly n levels below the pattern's parent
func ExactLevel(n int) *Level {
	return &Level{Depth: n, Op: LevelExact}
}

// ParseLevel reads "N" (exactly N), "N-" (N or fewer) or "N+" (N or more)
func ParseLevel(s string) (*Level, error) {
	s = strings.TrimSpace(s)
	op := LevelExact
	digits := s
	switch {
	case strings.HasSuffix(s, "-"):
		op, digits = LevelAtMost, strings.TrimSuffix(s, "-")
	case strings.HasSuffix(s, "+"):
		op, digits = LevelAtLeast, strings.TrimSuffix(s, "+")
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return nil, errors.NewSpecificationError("ParseLevel", fmt.Sprintf("unknown level type: %q", s))
	}
	return &Level{Depth: n, Op: op}, nil
}

// Match reports whether depth satisfies the level
func (l Level) Match(depth int) bool {
	switch l.Op {
	case LevelAtMost:
		return depth <= l.Depth
	case LevelAtLeast:
		return depth >= l.Depth
	default:
		return depth == l.Depth
	}
}

func (l Level) String() string {
	switch l.Op {
	case LevelAtMost:
		return fmt.Sprintf("%d-", l.Depth)
	case LevelAtLeast:
		return fmt.Sprintf("%d+", l.Depth)
	default:
		return strconv.Itoa(l.Depth)
	}
}

// PatternOptions controls PatternMatch
type PatternOptions struct {
	// Level restricts string matches by hierarchy depth
	Level *Level
	// Regexp compiles string specs verbatim as regular expressions
	// (anchored at the start only) instead of as globs
	Regexp bool
	// Separator between hierarchy levels, DefaultSeparator when empty
	Separator string
	// StrictMissing makes string specs against a string column with
	// missing rows a type error
	StrictMissing bool
}

// numeric tolerance, the numpy isclose defaults
const (
	relTol = 1e-5
	absTol = 1e-8
)

// PatternMatch returns the rows of col matching any of values.
//
// String values are globs where "*" matches any substring and every other
// character is literal; the whole label must match. A bare "*" without a
// level selects every row, missing ones included. Number values match
// labels numerically. Missing values (and "" or NaN) select missing rows.
func PatternMatch(col *meta.Column, values []meta.Value, opts PatternOptions) ([]bool, error) {
	if col == nil {
		return nil, errors.NewValidationError("PatternMatch", "", "nil column")
	}
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	n := col.Len()
	rows := make([]bool, n)
	selected := make([]bool, col.NumCategories())
	matchMissing := false
	all := false

	categories := col.Categories()
	cache := make(map[string]*regexp.Regexp)

	for _, spec := range values {
		if spec.Kind() == meta.KindString && spec.Str() == "" {
			spec = meta.Missing()
		}

		switch spec.Kind() {
		case meta.KindMissing:
			matchMissing = true

		case meta.KindNumber:
			want, _ := spec.Float()
			for j, label := range categories {
				if f, ok := label.Float(); ok && isClose(f, want) {
					selected[j] = true
				}
			}

		case meta.KindString:
			s := spec.Str()
			if !opts.Regexp && s == "*" && opts.Level == nil {
				all = true
				continue
			}
			if opts.StrictMissing && col.Kind() == meta.KindString && col.HasMissing() {
				return nil, errors.NewTypeError("PatternMatch", fmt.Sprintf(
					"column %q contains missing values; fill them before matching %q", col.Name(), s))
			}

			re, ok := cache[s]
			if !ok {
				var err error
				re, err = compileSpec(s, opts.Regexp)
				if err != nil {
					return nil, err
				}
				cache[s] = re
			}

			parent := ""
			if opts.Level != nil {
				parent = parentPath(s, sep)
			}
			for j, label := range categories {
				if selected[j] {
					continue
				}
				text := label.Str()
				if !re.MatchString(text) {
					continue
				}
				if opts.Level != nil && !opts.Level.Match(depth(text, parent, sep)) {
					continue
				}
				selected[j] = true
			}
		}
	}

	if all {
		for i := range rows {
			rows[i] = true
		}
		return rows, nil
	}

	for i := 0; i < n; i++ {
		code := col.Code(i)
		if code < 0 {
			rows[i] = matchMissing
			continue
		}
		rows[i] = selected[code]
	}
	return rows, nil
}

// compileSpec turns a glob ("*" is any substring, everything else literal)
// into an anchored regexp, or compiles s verbatim anchored at the start
func compileSpec(s string, verbatim bool) (*regexp.Regexp, error) {
	expr := globExpr(s)
	if verbatim {
		expr = `^(?:` + s + `)`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.NewSpecificationError("PatternMatch", fmt.Sprintf("invalid pattern %q: %v", s, err))
	}
	return re, nil
}

func globExpr(s string) string {
	parts := strings.Split(s, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}

// parentPath is the literal part of spec before its first "*", cut back to
// before its last separator
func parentPath(spec, sep string) string {
	literal, _, _ := strings.Cut(spec, "*")
	i := strings.LastIndex(literal, sep)
	if i < 0 {
		return ""
	}
	return literal[:i]
}

// depth counts the separators left in label once parent is removed
func depth(label, parent, sep string) int {
	return strings.Count(strings.TrimPrefix(label, parent), sep)
}

func isClose(a, b float64) bool {
	return math.Abs(a-b) <= absTol+relTol*math.Abs(b)
}
