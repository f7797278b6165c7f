package lookup

// Batch calls fn with consecutive slices of at most size ids.
func Batch(ids []string, size int, fn func([]string)) {
	if size <= 0 {
		size = len(ids)
	}
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		fn(ids[i:end])
	}
}
