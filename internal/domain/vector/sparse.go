// Package vector holds the single internal vector representation.
package vector

import "fmt"

// Sparse stores only non-zero components as parallel index/value slices,
// indices strictly ascending.
type Sparse struct {
	Indices []int     `json:"indices"`
	Values  []float32 `json:"values"`
}

// FromDense drops exact-zero components and keeps (index, value) pairs in
// ascending index order. The conversion is lossless.
func FromDense(dense []float32) Sparse {
	s := Sparse{Indices: []int{}, Values: []float32{}}
	for i, v := range dense {
		if v != 0 {
			s.Indices = append(s.Indices, i)
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// Dense expands the vector to dim components.
func (s Sparse) Dense(dim int) ([]float32, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := make([]float32, dim)
	for i, idx := range s.Indices {
		if idx >= dim {
			return nil, fmt.Errorf("index %d out of range for dimension %d", idx, dim)
		}
		out[idx] = s.Values[i]
	}
	return out, nil
}

// Len returns the number of stored components.
func (s Sparse) Len() int { return len(s.Indices) }

// Validate checks structural invariants.
func (s Sparse) Validate() error {
	if len(s.Indices) != len(s.Values) {
		return fmt.Errorf("sparse vector has %d indices but %d values", len(s.Indices), len(s.Values))
	}
	prev := -1
	for _, idx := range s.Indices {
		if idx <= prev {
			return fmt.Errorf("sparse indices must be strictly ascending and non-negative")
		}
		prev = idx
	}
	return nil
}
