// Package supabasetest runs an in-memory PostgREST double for tests.
// It understands the part of the protocol the service uses: column filters,
// or=(...) trees, order, limit, offset, single-object responses, exact
// counts, inserts, merge-duplicate upserts, patches, deletes and RPCs.
package supabasetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/supabase"
)

const ServiceKey = "service-key"

type Row = map[string]any

// RPCFunc answers a stored procedure call with a JSON-encodable result and status.
type RPCFunc func(params map[string]any) (any, int)

// Request is a recorded inbound call.
type Request struct {
	Method string
	Table  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]Row
	nextID   map[string]int64
	rpcs     map[string]RPCFunc
	failures map[string]int
	requests []Request
}

func New(t testing.TB) *Server {
	s := &Server{
		tables:   map[string][]Row{},
		nextID:   map[string]int64{},
		rpcs:     map[string]RPCFunc{},
		failures: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Client returns a REST client pointed at the double.
func (s *Server) Client() *supabase.Client {
	return supabase.New(supabase.Config{URL: s.URL, ServiceKey: ServiceKey, Timeout: 5 * time.Second}, logger.Discard(), nil)
}

// Seed appends rows to table. Rows without an id get one.
func (s *Server) Seed(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], s.prepare(table, normalize(r)))
	}
}

// Rows returns a copy of the table contents in insertion order.
func (s *Server) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Find returns the first row whose column equals value.
func (s *Server) Find(table, column string, value any) (Row, bool) {
	want := wireString(normalizeValue(value))
	for _, r := range s.Rows(table) {
		if v, ok := r[column]; ok && v != nil && compare(wireString(v), want) == 0 {
			return r, true
		}
	}
	return nil, false
}

func (s *Server) HandleRPC(name string, fn RPCFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcs[name] = fn
}

// Fail makes every method call on table answer with status until Heal.
func (s *Server) Fail(method, table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+table] = status
}

func (s *Server) Heal(method, table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+table)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	query := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Table: table, Query: query, Header: r.Header.Clone(), Body: body})

	if r.Header.Get("apikey") != ServiceKey || r.Header.Get("Authorization") != "Bearer "+ServiceKey {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	if status, ok := s.failures[r.Method+" "+table]; ok {
		writeError(w, status, "injected failure")
		return
	}

	if fn, ok := strings.CutPrefix(table, "rpc/"); ok {
		s.rpc(w, fn, body)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, r, table, query)
	case http.MethodPost:
		s.post(w, r, table, query, body)
	case http.MethodPatch:
		s.patch(w, r, table, query, body)
	case http.MethodDelete:
		s.delete(w, table, query)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) rpc(w http.ResponseWriter, name string, body []byte) {
	fn, ok := s.rpcs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "function not found: "+name)
		return
	}
	params := map[string]any{}
	if len(body) > 0 {
		if err := decode(body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	result, status := fn(params)
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, table string, q url.Values) {
	matched, err := s.match(table, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
		total := len(matched)
		if total == 0 {
			w.Header().Set("Content-Range", "*/0")
		} else {
			w.Header().Set("Content-Range", fmt.Sprintf("0-0/%d", total))
		}
		writeJSON(w, http.StatusPartialContent, []Row{})
		return
	}

	matched = paginate(sortRows(matched, q.Get("order")), q)

	if r.Header.Get("Accept") == "application/vnd.pgrst.object+json" {
		if len(matched) != 1 {
			writeJSON(w, http.StatusNotAcceptable, map[string]any{
				"code":    "PGRST116",
				"message": "JSON object requested, multiple (or no) rows returned",
			})
			return
		}
		writeJSON(w, http.StatusOK, matched[0])
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) post(w http.ResponseWriter, r *http.Request, table string, q url.Values, body []byte) {
	incoming, err := decodeRows(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prefer := r.Header.Get("Prefer")
	merge := strings.Contains(prefer, "resolution=merge-duplicates")
	conflict := []string{"id"}
	if oc := q.Get("on_conflict"); oc != "" {
		conflict = strings.Split(oc, ",")
	}

	var written []Row
	for _, in := range incoming {
		if merge {
			if existing := s.findConflict(table, in, conflict); existing != nil {
				for k, v := range in {
					existing[k] = v
				}
				written = append(written, copyRow(existing))
				continue
			}
		}
		row := s.prepare(table, in)
		s.tables[table] = append(s.tables[table], row)
		written = append(written, copyRow(row))
	}

	if strings.Contains(prefer, "return=representation") {
		writeJSON(w, http.StatusCreated, written)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, table string, q url.Values, body []byte) {
	changes := Row{}
	if err := decode(body, &changes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	matched, err := s.match(table, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated := make([]Row, 0, len(matched))
	for _, row := range matched {
		for k, v := range changes {
			row[k] = v
		}
		updated = append(updated, copyRow(row))
	}
	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, http.StatusOK, updated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) delete(w http.ResponseWriter, table string, q url.Values) {
	kept := make([]Row, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		hit, err := matchRow(row, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !hit {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) prepare(table string, row Row) Row {
	if _, ok := row["id"]; !ok {
		s.nextID[table]++
		row["id"] = json.Number(strconv.FormatInt(s.nextID[table], 10))
	} else if n, err := strconv.ParseInt(wireString(row["id"]), 10, 64); err == nil && n > s.nextID[table] {
		s.nextID[table] = n
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return row
}

func (s *Server) findConflict(table string, in Row, cols []string) Row {
	for _, row := range s.tables[table] {
		same := true
		for _, c := range cols {
			a, okA := row[c]
			b, okB := in[c]
			if !okA || !okB || compare(wireString(a), wireString(b)) != 0 {
				same = false
				break
			}
		}
		if same {
			return row
		}
	}
	return nil
}

var reservedParams = map[string]bool{"select": true, "order": true, "limit": true, "offset": true, "on_conflict": true}

// match returns the live rows of table that satisfy every filter in q.
func (s *Server) match(table string, q url.Values) ([]Row, error) {
	var out []Row
	for _, row := range s.tables[table] {
		hit, err := matchRow(row, q)
		if err != nil {
			return nil, err
		}
		if hit {
			out = append(out, row)
		}
	}
	return out, nil
}

func matchRow(row Row, q url.Values) (bool, error) {
	for key, values := range q {
		if reservedParams[key] {
			continue
		}
		for _, v := range values {
			var hit bool
			var err error
			if key == "or" {
				hit, err = evaluateOr(row, v)
			} else {
				hit, err = evaluate(row, key, v)
			}
			if err != nil || !hit {
				return false, err
			}
		}
	}
	return true, nil
}

func evaluateOr(row Row, tree string) (bool, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tree, "("), ")")
	for _, term := range splitTopLevel(inner) {
		parts := strings.SplitN(term, ".", 2)
		if len(parts) != 2 {
			return false, fmt.Errorf("bad or term %q", term)
		}
		hit, err := evaluate(row, parts[0], parts[1])
		if err != nil {
			return false, err
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}

func evaluate(row Row, column, expr string) (bool, error) {
	op, value, ok := strings.Cut(expr, ".")
	if !ok {
		return false, fmt.Errorf("bad filter %s=%s", column, expr)
	}
	value = unquote(value)
	raw, present := row[column]
	if op == "is" {
		switch value {
		case "null":
			return !present || raw == nil, nil
		case "true", "false":
			return present && wireString(raw) == value, nil
		}
		return false, fmt.Errorf("bad is value %q", value)
	}
	if !present || raw == nil {
		return false, nil
	}
	have := wireString(raw)

	switch op {
	case "eq":
		return compare(have, value) == 0, nil
	case "neq":
		return compare(have, value) != 0, nil
	case "gt":
		return compare(have, value) > 0, nil
	case "gte":
		return compare(have, value) >= 0, nil
	case "lt":
		return compare(have, value) < 0, nil
	case "lte":
		return compare(have, value) <= 0, nil
	case "like":
		return glob(value, false).MatchString(have), nil
	case "ilike":
		return glob(value, true).MatchString(have), nil
	case "in":
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
		for _, candidate := range splitTopLevel(inner) {
			if compare(have, unquote(candidate)) == 0 {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func glob(pattern string, fold bool) *regexp.Regexp {
	var b strings.Builder
	if fold {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		if r == '*' || r == '%' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// compare orders numbers numerically, timestamps chronologically and
// everything else lexically.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	ta, errA := supabase.ParseTime(a)
	tb, errB := supabase.ParseTime(b)
	if errA == nil && errB == nil {
		return ta.Compare(tb.Time)
	}
	return strings.Compare(a, b)
}

func sortRows(rows []Row, order string) []Row {
	if order == "" {
		return rows
	}
	terms := strings.Split(order, ",")
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			parts := strings.Split(term, ".")
			col := parts[0]
			desc := len(parts) > 1 && parts[1] == "desc"
			a, b := wireString(rows[i][col]), wireString(rows[j][col])
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return rows
}

func paginate(rows []Row, q url.Values) []Row {
	if off, err := strconv.Atoi(q.Get("offset")); err == nil {
		if off >= len(rows) {
			return nil
		}
		rows = rows[off:]
	}
	if lim, err := strconv.Atoi(q.Get("limit")); err == nil && lim < len(rows) {
		rows = rows[:lim]
	}
	return rows
}

func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	quoted := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && quoted && i+1 < len(s):
			cur.WriteByte(ch)
			i++
			cur.WriteByte(s[i])
			continue
		case ch == '"':
			quoted = !quoted
		case ch == '(' && !quoted:
			depth++
		case ch == ')' && !quoted:
			depth--
		case ch == ',' && !quoted && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
		v = strings.ReplaceAll(v, `\"`, `"`)
		v = strings.ReplaceAll(v, `\\`, `\`)
	}
	return v
}

func wireString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func normalize(r Row) Row {
	out := Row{}
	b, _ := json.Marshal(r)
	_ = decode(b, &out)
	return out
}

func normalizeValue(v any) any {
	return normalize(Row{"v": v})["v"]
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func decode(b []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dest)
}

func decodeRows(body []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []Row
		err := decode(trimmed, &rows)
		return rows, err
	}
	row := Row{}
	if err := decode(trimmed, &row); err != nil {
		return nil, err
	}
	return []Row{row}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}
