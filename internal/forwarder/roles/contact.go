package roles

import "strings"

// Candidate key lists for the best-effort contact extraction. Ordered:
// earlier keys win. Forms differ per application, so both the Dutch and
// English spellings that occur in practice are listed.
var (
	emailKeys = []string{"emailadres", "email", "e-mailadres", "e-mail", "mail"}
	phoneKeys = []string{"telefoonnummer", "telefoon", "phone", "phonenumber", "mobiel"}
	nameKeys  = []string{"naam", "volledigenaam", "name", "fullname", "contactpersoon"}
)

// findField searches a decoded JSON tree for the first value stored under
// any of the candidate keys, in candidate order. Nested objects and arrays
// are searched depth-first; the first match wins. Key comparison is
// case-insensitive. Pure function, no side effects.
func findField(tree any, candidates []string) string {
	for _, candidate := range candidates {
		if value := findKey(tree, candidate); value != "" {
			return value
		}
	}
	return ""
}

func findKey(node any, key string) string {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if strings.EqualFold(strings.TrimSpace(k), key) {
				if s, ok := child.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
		for _, child := range v {
			if value := findKey(child, key); value != "" {
				return value
			}
		}
	case []any:
		for _, child := range v {
			if value := findKey(child, key); value != "" {
				return value
			}
		}
	}
	return ""
}
