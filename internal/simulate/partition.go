package simulate

import "fmt"

// Partition returns the secret indices in [0, secrets) that belong to worker
// w of n: those with index mod n == w.
func Partition(w, n, secrets int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", n)
	}
	if w < 0 || w >= n {
		return nil, fmt.Errorf("worker id %d outside [0,%d)", w, n)
	}
	if secrets < 0 {
		return nil, fmt.Errorf("secret count must not be negative, got %d", secrets)
	}
	out := make([]int, 0, (secrets+n-1)/n)
	for i := w; i < secrets; i += n {
		out = append(out, i)
	}
	return out, nil
}
