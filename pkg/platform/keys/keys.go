// Package keys provides helpers for preparing lookup keys before they are
// sent to an upstream registry.
package keys

// Dedupe removes duplicate keys from a slice. The first occurrence of each key
// wins, so the relative order of the remaining keys is preserved.
//
// Example:
//
//	Dedupe([]string{"A", "A", "B", "A"})
//	// Returns: []string{"A", "B"}
func Dedupe[K comparable](values []K) []K {
	if len(values) == 0 {
		return values
	}

	seen := make(map[K]struct{}, len(values))
	result := make([]K, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// Chunk splits values into consecutive slices of at most size elements. The
// last chunk holds the remainder. A non-positive size yields a single chunk.
// The returned chunks share the backing array of values.
//
// Example:
//
//	Chunk([]int{1, 2, 3, 4, 5}, 2)
//	// Returns: [][]int{{1, 2}, {3, 4}, {5}}
func Chunk[K any](values []K, size int) [][]K {
	if len(values) == 0 {
		return nil
	}
	if size <= 0 || size >= len(values) {
		return [][]K{values}
	}

	chunks := make([][]K, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end:end])
	}

	return chunks
}
