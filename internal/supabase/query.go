package supabase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Op is a PostgREST filter operator.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpLike  Op = "like"
	OpILike Op = "ilike"
	OpIn    Op = "in"
	OpIs    Op = "is"
)

// Filter is one column condition. Value is already in wire form.
type Filter struct {
	Column string
	Op     Op
	Value  string
}

func Eq(column string, v any) Filter  { return Filter{column, OpEq, formatValue(v)} }
func Neq(column string, v any) Filter { return Filter{column, OpNeq, formatValue(v)} }
func Gt(column string, v any) Filter  { return Filter{column, OpGt, formatValue(v)} }
func Gte(column string, v any) Filter { return Filter{column, OpGte, formatValue(v)} }
func Lt(column string, v any) Filter  { return Filter{column, OpLt, formatValue(v)} }
func Lte(column string, v any) Filter { return Filter{column, OpLte, formatValue(v)} }

// ILike matches term anywhere in the column, case-insensitively.
func ILike(column, term string) Filter {
	return Filter{column, OpILike, "*" + term + "*"}
}

// ILikeExact matches the column against term case-insensitively with no wildcards.
func ILikeExact(column, term string) Filter {
	return Filter{column, OpILike, term}
}

func In(column string, values ...any) Filter {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quoteReserved(formatValue(v))
	}
	return Filter{column, OpIn, "(" + strings.Join(parts, ",") + ")"}
}

// Is supports null, true and false.
func Is(column, v string) Filter {
	return Filter{column, OpIs, v}
}

func (f Filter) treeExpr() string {
	v := f.Value
	if f.Op != OpIn {
		v = quoteReserved(v)
	}
	return f.Column + "." + string(f.Op) + "." + v
}

type param struct {
	key   string
	value string
}

// Query builds a PostgREST query string. Parameters keep insertion order.
type Query struct {
	columns string
	params  []param
}

func NewQuery() *Query {
	return &Query{}
}

func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

func (q *Query) Where(filters ...Filter) *Query {
	for _, f := range filters {
		q.params = append(q.params, param{f.Column, string(f.Op) + "." + f.Value})
	}
	return q
}

func (q *Query) Eq(column string, v any) *Query { return q.Where(Eq(column, v)) }

// Or adds an or=(...) logic tree over filters.
func (q *Query) Or(filters ...Filter) *Query {
	exprs := make([]string, len(filters))
	for i, f := range filters {
		exprs[i] = f.treeExpr()
	}
	q.params = append(q.params, param{"or", "(" + strings.Join(exprs, ",") + ")"})
	return q
}

func (q *Query) Order(column string, desc bool) *Query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	term := column + "." + dir
	for i := range q.params {
		if q.params[i].key == "order" {
			q.params[i].value += "," + term
			return q
		}
	}
	q.params = append(q.params, param{"order", term})
	return q
}

func (q *Query) Limit(n int) *Query {
	q.params = append(q.params, param{"limit", strconv.Itoa(n)})
	return q
}

func (q *Query) Offset(n int) *Query {
	q.params = append(q.params, param{"offset", strconv.Itoa(n)})
	return q
}

func (q *Query) OnConflict(columns ...string) *Query {
	q.params = append(q.params, param{"on_conflict", strings.Join(columns, ",")})
	return q
}

func (q *Query) Clone() *Query {
	if q == nil {
		return NewQuery()
	}
	return &Query{columns: q.columns, params: append([]param(nil), q.params...)}
}

// Encode serialises the query with RFC 3986 escaping.
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	var parts []string
	if q.columns != "" {
		parts = append(parts, "select="+escape(q.columns))
	}
	for _, p := range q.params {
		parts = append(parts, escape(p.key)+"="+escape(p.value))
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

const reservedChars = ",.:()\" "

func quoteReserved(v string) string {
	if !strings.ContainsAny(v, reservedChars) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
