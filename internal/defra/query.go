package defra

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// IDPattern matches document ids (bae-<uuid>) and collection names.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks that id is safe to interpolate into a GraphQL document.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if len(id) > 500 {
		return fmt.Errorf("ID too long: %d characters", len(id))
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("invalid ID %q: contains unsafe characters", id)
	}
	return nil
}

// Order directions.
const (
	ASC  = "ASC"
	DESC = "DESC"
)

// QueryBuilder builds collection queries whose filter values travel as
// GraphQL variables.
type QueryBuilder struct {
	collection string
	filters    []filterDef
	fields     []string
	order      string
	limit      int
}

type filterDef struct {
	field   string
	op      string
	varType string
	value   any
}

// NewQuery starts a query over collection returning only _docID.
func NewQuery(collection string) *QueryBuilder {
	return &QueryBuilder{collection: collection, fields: []string{"_docID"}}
}

// Filter adds an equality filter.
func (q *QueryBuilder) Filter(field string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{field: field, op: "_eq", varType: graphQLType(value), value: value})
	return q
}

// FilterGT adds a greater-than filter.
func (q *QueryBuilder) FilterGT(field string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{field: field, op: "_gt", varType: graphQLType(value), value: value})
	return q
}

// Fields sets the returned fields, replacing the default.
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	q.fields = fields
	return q
}

// OrderBy orders results by field in the given direction (ASC or DESC).
func (q *QueryBuilder) OrderBy(field, direction string) *QueryBuilder {
	q.order = fmt.Sprintf("{%s: %s}", field, direction)
	return q
}

// Limit caps the number of results.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Build returns the query document and its variables.
func (q *QueryBuilder) Build() (string, map[string]any) {
	vars := make(map[string]any, len(q.filters))
	varDefs := make([]string, 0, len(q.filters))
	conds := make([]string, 0, len(q.filters))
	for i, f := range q.filters {
		name := fmt.Sprintf("v%d", i)
		vars[name] = f.value
		varDefs = append(varDefs, fmt.Sprintf("$%s: %s", name, f.varType))
		conds = append(conds, fmt.Sprintf("%s: {%s: $%s}", f.field, f.op, name))
	}

	var args []string
	if len(conds) > 0 {
		args = append(args, "filter: {"+strings.Join(conds, ", ")+"}")
	}
	if q.order != "" {
		args = append(args, "order: "+q.order)
	}
	if q.limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", q.limit))
	}

	var b strings.Builder
	if len(varDefs) > 0 {
		fmt.Fprintf(&b, "query(%s) ", strings.Join(varDefs, ", "))
	}
	b.WriteString("{ ")
	b.WriteString(q.collection)
	if len(args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}
	fmt.Fprintf(&b, " { %s } }", strings.Join(q.fields, " "))

	return b.String(), vars
}

// Execute runs the query and returns the matching documents.
func (q *QueryBuilder) Execute(ctx context.Context, client *Client) ([]map[string]any, error) {
	query, vars := q.Build()
	resp, err := client.Execute(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query %s: %s", q.collection, msg)
	}
	return resp.Docs(q.collection), nil
}

func graphQLType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Boolean"
	case time.Time:
		return "DateTime"
	default:
		return "String"
	}
}
