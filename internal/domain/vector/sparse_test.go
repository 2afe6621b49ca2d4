package vector

import "testing"

func TestFromDense_DropsExactZeros(t *testing.T) {
	dense := []float32{0, 0.5, 0, -0.25, 1e-9, 0}
	s := FromDense(dense)

	wantIdx := []int{1, 3, 4}
	wantVal := []float32{0.5, -0.25, 1e-9}
	if s.Len() != len(wantIdx) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(wantIdx))
	}
	for i := range wantIdx {
		if s.Indices[i] != wantIdx[i] || s.Values[i] != wantVal[i] {
			t.Errorf("pair %d = (%d, %g), want (%d, %g)", i, s.Indices[i], s.Values[i], wantIdx[i], wantVal[i])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	dense := []float32{0.1, 0, 0, 0.2, 0, 0.3}
	back, err := FromDense(dense).Dense(len(dense))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range dense {
		if back[i] != dense[i] {
			t.Errorf("component %d = %g, want %g", i, back[i], dense[i])
		}
	}
}

func TestFromDense_AllZero(t *testing.T) {
	s := FromDense(make([]float32, 4))
	if s.Len() != 0 || s.Indices == nil || s.Values == nil {
		t.Errorf("expected empty non-nil slices, got %+v", s)
	}
}

func TestDense_Errors(t *testing.T) {
	tests := []struct {
		name string
		s    Sparse
		dim  int
	}{
		{"length mismatch", Sparse{Indices: []int{0}, Values: nil}, 2},
		{"unsorted", Sparse{Indices: []int{2, 1}, Values: []float32{1, 1}}, 3},
		{"duplicate", Sparse{Indices: []int{1, 1}, Values: []float32{1, 1}}, 3},
		{"negative", Sparse{Indices: []int{-1}, Values: []float32{1}}, 3},
		{"out of range", Sparse{Indices: []int{5}, Values: []float32{1}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.s.Dense(tt.dim); err == nil {
				t.Error("expected error")
			}
		})
	}
}
