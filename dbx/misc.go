package dbx

import (
	"strings"
	"unicode"
)

// ToCamelCase converts PARENT_ID -> ParentId
func ToCamelCase(name string) string {
	var sb strings.Builder
	upper := true
	for _, letter := range name {
		if letter == '_' {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(letter))
			upper = false
		} else {
			sb.WriteRune(unicode.ToLower(letter))
		}
	}
	return sb.String()
}
