package cookie

import "github.com/tidwall/gjson"

// Validator answers whether a string looks like JSON. It must not panic or fail.
type Validator interface {
	IsJSON(s string) bool
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(s string) bool

// IsJSON calls f(s).
func (f ValidatorFunc) IsJSON(s string) bool {
	return f(s)
}

// JSONValidator is the default Validator backed by gjson.
type JSONValidator struct{}

// IsJSON reports whether s is a complete, valid JSON document.
func (JSONValidator) IsJSON(s string) bool {
	return gjson.Valid(s)
}
