package backendtest

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type condition struct {
	column string
	op     string // eq, neq, gte, lte, lt, is.null, not.is.null
	value  string
}

// filter is either a conjunction of conditions or a disjunction of
// condition groups (the or= parameter)
type filter struct {
	conds    []condition
	orGroups [][]condition
}

func parseFilters(params url.Values) []filter {
	var filters []filter
	for key, values := range params {
		switch key {
		case "select", "order", "limit", "offset":
			continue
		case "or":
			for _, v := range values {
				filters = append(filters, filter{orGroups: parseOrGroups(v)})
			}
		default:
			for _, v := range values {
				filters = append(filters, filter{conds: []condition{parseOpSpec(key, v)}})
			}
		}
	}
	return filters
}

// parseOpSpec parses a "op.value" filter value for a column
func parseOpSpec(column, spec string) condition {
	switch {
	case spec == "is.null":
		return condition{column: column, op: "is.null"}
	case spec == "not.is.null":
		return condition{column: column, op: "not.is.null"}
	}
	parts := strings.SplitN(spec, ".", 2)
	if len(parts) != 2 {
		return condition{column: column, op: "eq", value: spec}
	}
	return condition{column: column, op: parts[0], value: parts[1]}
}

// parseOrGroups parses "(cond,cond,...)" where a cond is "col.op.value" or
// "and(col.op.value,...)"
func parseOrGroups(s string) [][]condition {
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	var groups [][]condition
	for _, part := range splitTop(s) {
		if inner, ok := strings.CutPrefix(part, "and("); ok {
			inner = strings.TrimSuffix(inner, ")")
			var group []condition
			for _, c := range splitTop(inner) {
				group = append(group, parseCondString(c))
			}
			groups = append(groups, group)
		} else {
			groups = append(groups, []condition{parseCondString(part)})
		}
	}
	return groups
}

// parseCondString parses "column.op.value" (also "column.is.null" and
// "column.not.is.null")
func parseCondString(s string) condition {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return condition{column: s, op: "eq"}
	}
	return parseOpSpec(parts[0], parts[1])
}

// splitTop splits on commas outside parentheses
func splitTop(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if start <= len(s) && s[start:] != "" {
		out = append(out, s[start:])
	}
	return out
}

func matchAll(row Row, filters []filter) bool {
	for _, f := range filters {
		if !f.match(row) {
			return false
		}
	}
	return true
}

func (f filter) match(row Row) bool {
	if f.orGroups != nil {
		for _, group := range f.orGroups {
			ok := true
			for _, c := range group {
				if !c.match(row) {
					ok = false
					break
				}
			}
			if ok {
				return true
			}
		}
		return false
	}

	for _, c := range f.conds {
		if !c.match(row) {
			return false
		}
	}
	return true
}

func (c condition) match(row Row) bool {
	val, present := row[c.column]

	switch c.op {
	case "is.null":
		return !present || val == nil
	case "not.is.null":
		return present && val != nil
	}

	if !present || val == nil {
		return false
	}

	cmp := compareValue(val, c.value)
	switch c.op {
	case "eq":
		return cmp == 0
	case "neq":
		return cmp != 0
	case "gte":
		return cmp >= 0
	case "lte":
		return cmp <= 0
	case "lt":
		return cmp < 0
	default:
		return false
	}
}

// compareValue compares a row value against a filter literal, coercing
// numbers and bools; everything else compares as strings
func compareValue(val any, literal string) int {
	switch v := val.(type) {
	case float64:
		if n, err := strconv.ParseFloat(literal, 64); err == nil {
			switch {
			case v < n:
				return -1
			case v > n:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if b, err := strconv.ParseBool(literal); err == nil {
			if v == b {
				return 0
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(val), literal)
}

// applyOrder sorts rows by "column.asc" / "column.desc" specs, applied in
// order of significance
func applyOrder(rows []Row, specs []string) []Row {
	if len(specs) == 0 {
		return rows
	}

	type orderKey struct {
		column string
		asc    bool
	}
	var keys []orderKey
	for _, spec := range specs {
		parts := strings.SplitN(spec, ".", 2)
		k := orderKey{column: parts[0], asc: true}
		if len(parts) == 2 && parts[1] == "desc" {
			k.asc = false
		}
		keys = append(keys, k)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareRowValues(rows[i][k.column], rows[j][k.column])
			if cmp == 0 {
				continue
			}
			if k.asc {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return rows
}

func compareRowValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
