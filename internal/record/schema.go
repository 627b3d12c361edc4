package record

import (
	"fmt"
	"strings"
)

// Schema lists the writable columns of every table the service accepts.
type Schema map[string][]string

// ParseSchema parses "table:col1,col2;other:col" definitions.
func ParseSchema(raw string) (Schema, error) {
	s := Schema{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		table, cols, ok := strings.Cut(part, ":")
		table = strings.TrimSpace(table)
		if !ok || table == "" {
			return nil, fmt.Errorf("record schema: invalid table definition %q", part)
		}
		var columns []string
		for _, c := range strings.Split(cols, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if c == ColumnID || c == ColumnCreatedAt {
				return nil, fmt.Errorf("record schema: column %q is reserved in table %q", c, table)
			}
			columns = append(columns, c)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("record schema: table %q has no columns", table)
		}
		s[table] = columns
	}
	return s, nil
}

// Columns returns the writable column set for table.
func (s Schema) Columns(table string) (map[string]struct{}, bool) {
	cols, ok := s[table]
	if !ok {
		return nil, false
	}
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	return set, true
}
