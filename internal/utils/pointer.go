package utils

// F64Ptr returns a pointer to the given float64 value.
func F64Ptr(v float64) *float64 { return &v }

// F64Value dereferences p, returning def when p is nil.
func F64Value(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
