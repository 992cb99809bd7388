package builtin

// Require removes any record for which Present reports false.
type Require[T any] struct {
	Present func(T) bool
}

// Apply returns a new slice with the records that passed, and the number of
// records dropped. The input slice is not modified.
func (r Require[T]) Apply(in []T) ([]T, int) {
	if r.Present == nil {
		return in, 0
	}
	out := make([]T, 0, len(in))
	for _, rec := range in {
		if r.Present(rec) {
			out = append(out, rec)
		}
	}
	return out, len(in) - len(out)
}
