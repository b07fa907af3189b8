// Package dialect renders placeholders for the target database.
package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

// ErrUnknownDialect is returned by Lookup for unsupported names.
var ErrUnknownDialect = errors.New("unknown dialect")

// Style is a placeholder convention.
type Style int

const (
	// Question writes one ? per parameter occurrence.
	Question Style = iota
	// Dollar writes $n and reuses n for repeated parameters.
	Dollar
)

// Dialect is a named placeholder convention.
type Dialect struct {
	Name  string
	Style Style
}

var dialects = map[string]Style{
	"mysql":       Question,
	"mariadb":     Question,
	"sqlite":      Question,
	"sqlite3":     Question,
	"postgres":    Dollar,
	"postgresql":  Dollar,
	"cockroachdb": Dollar,
}

// Lookup returns the dialect registered under name (case-insensitive).
func Lookup(name string) (Dialect, error) {
	key := strings.ToLower(name)
	style, ok := dialects[key]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
	return Dialect{Name: key, Style: style}, nil
}

// Names lists the supported dialect names.
func Names() []string {
	return []string{"cockroachdb", "mariadb", "mysql", "postgres", "postgresql", "sqlite", "sqlite3"}
}

// Render rewrites the markers of f and returns the final text with the
// parameters in binding order.
func (d Dialect) Render(f fragment.Fragment) (string, []fragment.Param, error) {
	if n := fragment.CountMarkers(f.SQL); n != len(f.Params) {
		return "", nil, fmt.Errorf("statement has %d placeholders for %d parameters", n, len(f.Params))
	}
	if d.Style == Question {
		params := make([]fragment.Param, len(f.Params))
		copy(params, f.Params)
		return f.SQL, params, nil
	}
	return renderDollar(f)
}

func renderDollar(f fragment.Fragment) (string, []fragment.Param, error) {
	var (
		sb       strings.Builder
		last     int
		i        int
		ordinals = make(map[string]int)
		byOrd    = make(map[int]fragment.Param)
	)
	fragment.EachMarker(f.SQL, func(offset int) {
		p := f.Params[i]
		i++
		n, seen := ordinals[p.Key]
		if !seen {
			n = len(ordinals) + 1
			ordinals[p.Key] = n
			byOrd[n] = p
		}
		sb.WriteString(f.SQL[last:offset])
		sb.WriteString("$" + strconv.Itoa(n))
		last = offset + 1
	})
	sb.WriteString(f.SQL[last:])
	sql := sb.String()

	order := Ordinals(sql)
	params := make([]fragment.Param, 0, len(order))
	for _, n := range order {
		p, ok := byOrd[n]
		if !ok {
			return "", nil, fmt.Errorf("placeholder $%d has no parameter", n)
		}
		params = append(params, p)
	}
	return sql, params, nil
}

// Ordinals scans sql for $n placeholders outside quotes and returns each
// distinct n in order of first appearance.
func Ordinals(sql string) []int {
	var (
		out   []int
		seen  = make(map[int]bool)
		quote byte
	)
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j == i+1 {
				continue
			}
			n, _ := strconv.Atoi(sql[i+1 : j])
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
			i = j - 1
		}
	}
	return out
}
