package search

import "strings"

// Query is a fragment of the backend query DSL, marshaled as-is under
// the request's "query" key. Build them with the constructors below so
// services stay out of the raw JSON business.
type Query map[string]any

// MatchAll matches every document.
func MatchAll() Query {
	return Query{"match_all": map[string]any{}}
}

// Match runs full-text matching of text against a single field.
func Match(field, text string) Query {
	return Query{"match": map[string]any{field: map[string]any{"query": text}}}
}

// Term matches documents whose field equals value exactly.
func Term(field string, value any) Query {
	return Query{"term": map[string]any{field: value}}
}

// Nested scopes q to the nested objects under path.
func Nested(path string, q Query) Query {
	return Query{"nested": map[string]any{"path": path, "query": q}}
}

// BoolShould matches documents satisfying at least one of qs.
func BoolShould(qs ...Query) Query {
	return Query{"bool": map[string]any{"should": qs}}
}

// MultiMatch runs full-text matching of text against several fields.
// Fields may carry boosts ("title^3"), fuzziness is passed through when
// non-empty.
func MultiMatch(text string, fields []string, fuzziness string) Query {
	m := map[string]any{"query": text, "fields": fields}
	if fuzziness != "" {
		m["fuzziness"] = fuzziness
	}
	return Query{"multi_match": m}
}

// sortClause turns "-field" / "field" into the DSL sort array, nil when
// sort is empty.
func sortClause(sort string) []any {
	if sort == "" {
		return nil
	}
	field, order := sort, "asc"
	if strings.HasPrefix(sort, "-") {
		field, order = sort[1:], "desc"
	}
	return []any{map[string]any{field: map[string]any{"order": order}}}
}
