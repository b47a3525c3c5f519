package domain

import "strings"

// TokenizeLine splits one CSV line on commas. A double quote toggles a quoted
// region in which commas do not end a field; the quote characters themselves
// are dropped. Embedded quotes cannot be escaped. Fields are trimmed.
func TokenizeLine(line string) []string {
	fields := make([]string, 0, strings.Count(line, ",")+1)
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// splitLines returns the non-blank lines of text. Handles \n and \r\n.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// headerIndex lower-cases and trims each header field and maps it to its
// column position. The first occurrence of a repeated name wins.
func headerIndex(line string) map[string]int {
	fields := TokenizeLine(line)
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// field returns the value for column name, or "" if the column is absent
// from the header or the row is short.
func field(values []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(values) {
		return ""
	}
	return values[i]
}
