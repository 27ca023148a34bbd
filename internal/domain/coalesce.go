package domain

// DefaultAPITitle names the API when the configuration leaves Title empty.
const DefaultAPITitle = "GraphQL API"

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// BoolFromPtrWithDefault returns the first non-nil *bool value, or the fallback.
func BoolFromPtrWithDefault(fallback bool, ptrs ...*bool) bool {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}

// DisplayTitle returns the configured title or DefaultAPITitle.
func (c APIConfig) DisplayTitle() string {
	return CoalesceStr(c.Title, DefaultAPITitle)
}
