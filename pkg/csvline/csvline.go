package csvline

import "strings"

// Fields splits a single CSV line into trimmed field values.
//
// A field may be wrapped in double quotes; inside a quoted field a doubled
// quote is a literal quote and commas do not split. The stdlib csv reader is
// deliberately not used here: uploads produced by spreadsheet exports are
// frequently sloppy, and this splitter must keep going where encoding/csv
// would error (bare quotes mid-field, an unterminated quote consuming the
// rest of the line). A trailing comma yields an empty final field.
func Fields(line string) []string {
	fields := make([]string, 0, 8)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// escaped quote
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}
