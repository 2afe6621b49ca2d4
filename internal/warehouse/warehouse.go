// Package warehouse defines the columnar patent warehouse contract shared by
// the SQLite (local) and BigQuery (production) adapters.
package warehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
)

// Param is a named query parameter, referenced in SQL as @Name.
type Param struct {
	Name  string
	Value any
}

// Querier executes parameterized SQL against the patents table.
type Querier interface {
	Query(ctx context.Context, sql string, params []Param) ([]patent.Row, error)
	Ping(ctx context.Context) error
	Dialect() Dialect
	Close() error
}

// Dialect renders the backend-specific fragments of otherwise portable SQL.
// Both backends accept @name parameters, LOWER, SUBSTR and LIMIT/OFFSET.
type Dialect interface {
	// Table returns the fully qualified patents table.
	Table() string
	// Like renders LIKE with backslash as the escape character. Callers lower
	// both sides; case folding of LIKE itself differs between backends.
	Like(expr, param string) string
	// ArrayAnyLike is true when any element of the list column matches the LIKE pattern.
	ArrayAnyLike(col, param string) string
	// ArrayContains is true when any element of the list column equals the parameter.
	ArrayContains(col, param string) string
	// Unnest returns a FROM-clause fragment that joins one row per list element,
	// and the expression naming that element.
	Unnest(col, alias string) (from, elem string)
}

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Params accumulates named parameters while a query is being built.
type Params struct {
	list []Param
}

// Add registers a value and returns its placeholder.
func (p *Params) Add(v any) string {
	name := "p" + strconv.Itoa(len(p.list))
	p.list = append(p.list, Param{Name: name, Value: v})
	return "@" + name
}

// AddList registers each value and returns a comma-separated placeholder list.
func (p *Params) AddList(values []string) string {
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = p.Add(v)
	}
	return strings.Join(ph, ", ")
}

// List returns the registered parameters.
func (p *Params) List() []Param { return p.list }

// Int coerces an aggregate cell to int. BigQuery returns INT64 as strings.
func Int(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse int %q: %w", t, err)
		}
		return int(n), nil
	case []byte:
		return Int(string(t))
	case map[string]any:
		return Int(t["v"])
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

// String coerces a scalar cell to string.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any:
		return String(t["v"])
	default:
		return fmt.Sprint(t)
	}
}
