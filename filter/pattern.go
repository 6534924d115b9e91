package filter

import "strings"

// translatePattern converts a LIKE/ILIKE pattern using the cheapest query
// that expresses it:
//
//   - no wildcards at all:            exact term on the unescaped literal
//   - literal followed by one %:      prefix query
//   - anything else:                  wildcard query
//
// Case-insensitive matching is expressed with the query's own
// case_insensitive flag; values are never lower-cased client-side.
func (t *Translator) translatePattern(p *Pattern) (map[string]any, error) {
	field, err := t.meta.exactField(p.Field)
	if err != nil {
		return nil, err
	}

	var clause map[string]any
	if lit, ok := literalPattern(p.Pattern); ok {
		clause = patternQuery("term", field, lit, p.CaseInsensitive)
	} else if prefix, ok := prefixPattern(p.Pattern); ok {
		clause = patternQuery("prefix", field, prefix, p.CaseInsensitive)
	} else {
		clause = patternQuery("wildcard", field, likeToWildcard(p.Pattern), p.CaseInsensitive)
	}

	if p.Negate {
		return mustNot(clause), nil
	}
	return clause, nil
}

func patternQuery(kind, field, value string, caseInsensitive bool) map[string]any {
	body := map[string]any{"value": value}
	if caseInsensitive {
		body["case_insensitive"] = true
	}
	return map[string]any{
		kind: map[string]any{field: body},
	}
}

// literalPattern resolves escapes and reports whether the pattern holds no
// unescaped wildcards, i.e. LIKE degenerates to an exact match.
func literalPattern(pattern string) (string, bool) {
	var sb strings.Builder
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%' || r == '_':
			return "", false
		default:
			sb.WriteRune(r)
		}
	}
	if escaped {
		sb.WriteByte('\\')
	}
	return sb.String(), true
}

// prefixPattern reports whether the pattern is a literal followed by a single
// trailing unescaped %, returning the unescaped literal part.
func prefixPattern(pattern string) (string, bool) {
	if !strings.HasSuffix(pattern, "%") {
		return "", false
	}
	body := pattern[:len(pattern)-1]
	// The trailing % is escaped when preceded by an odd run of backslashes.
	slashes := 0
	for i := len(body) - 1; i >= 0 && body[i] == '\\'; i-- {
		slashes++
	}
	if slashes%2 == 1 {
		return "", false
	}
	return literalPattern(body)
}

// likeToWildcard converts SQL LIKE syntax to store wildcard syntax:
// % becomes *, _ becomes ?, backslash-escaped characters become literals,
// and literal * ? \ are escaped so they cannot act as wildcards.
func likeToWildcard(pattern string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			writeWildcardLiteral(&sb, r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			sb.WriteByte('*')
		case '_':
			sb.WriteByte('?')
		default:
			writeWildcardLiteral(&sb, r)
		}
	}
	if escaped {
		sb.WriteString(`\\`)
	}
	return sb.String()
}

func writeWildcardLiteral(sb *strings.Builder, r rune) {
	if r == '*' || r == '?' || r == '\\' {
		sb.WriteByte('\\')
	}
	sb.WriteRune(r)
}
