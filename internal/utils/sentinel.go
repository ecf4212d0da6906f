package utils

import "strings"

// Clients (notably generated API consoles) send literal placeholder values
// for fields the user left untouched. Those must read as "not provided", not
// as an update to an empty value.

// Provided reports whether a string field carries a real value. Blank strings
// and the literal placeholder "string" do not.
func Provided(s *string) bool {
	if s == nil {
		return false
	}
	v := strings.TrimSpace(*s)
	return v != "" && !strings.EqualFold(v, "string")
}

// ProvidedInt reports whether an int field carries a real value. Zero is the
// placeholder for code fields, which are 1-based.
func ProvidedInt(v *int) bool {
	return v != nil && *v != 0
}

// ProvidedInt64 is ProvidedInt for 64-bit code fields.
func ProvidedInt64(v *int64) bool {
	return v != nil && *v != 0
}

// Trimmed returns the trimmed value of a provided string field.
func Trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// StrPtr returns a pointer to s. Convenience for optional fields.
func StrPtr(s string) *string { return &s }
