package repository_test

import (
	"testing"

	"github.com/grexie/anomaly/pkg/repository"
	"gorgonia.org/tensor"
)

func batch(values []float64, dim int) *tensor.Dense {
	return tensor.New(tensor.WithShape(len(values)/dim, dim), tensor.WithBacking(values))
}

func TestUpdatePreservesOrder(t *testing.T) {
	r := repository.New(4, 2)

	if err := r.Update(batch([]float64{1, 2, 3, 4}, 2), []int{0, 1}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := r.Update(batch([]float64{5, 6, 7, 8}, 2), []int{2, 3}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if r.Len() != 4 {
		t.Fatalf("len = %d, want 4", r.Len())
	}
	for i := 0; i < 4; i++ {
		v, label := r.At(i)
		if label != i {
			t.Errorf("slot %d: label = %d, want %d", i, label, i)
		}
		if v[0] != float64(2*i+1) || v[1] != float64(2*i+2) {
			t.Errorf("slot %d: embedding = %v", i, v)
		}
	}
}

func TestCapacityOverflow(t *testing.T) {
	r := repository.New(2, 2)

	if err := r.Update(batch([]float64{1, 2, 3, 4}, 2), []int{0, 1}); err != nil {
		t.Fatalf("update within capacity: %v", err)
	}
	if err := r.Update(batch([]float64{5, 6}, 2), []int{2}); err == nil {
		t.Fatal("expected capacity error")
	}
}

func TestResizeRaisesCapacityAndEmpties(t *testing.T) {
	r := repository.New(2, 2)
	if err := r.Update(batch([]float64{1, 2}, 2), []int{0}); err != nil {
		t.Fatal(err)
	}

	r.Resize(3)
	if r.Len() != 0 {
		t.Fatalf("len after resize = %d, want 0", r.Len())
	}
	if r.Capacity() != 6 {
		t.Fatalf("capacity = %d, want 6", r.Capacity())
	}

	for i := 0; i < 3; i++ {
		if err := r.Update(batch([]float64{1, 2, 3, 4}, 2), []int{0, 1}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if err := r.Update(batch([]float64{1, 2}, 2), []int{0}); err == nil {
		t.Fatal("expected capacity error past multiplicity")
	}
}

func TestUpdateValidatesShapes(t *testing.T) {
	r := repository.New(4, 2)

	if err := r.Update(batch([]float64{1, 2, 3}, 3), []int{0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if err := r.Update(batch([]float64{1, 2}, 2), []int{0, 1}); err == nil {
		t.Error("expected label count mismatch error")
	}
}

func TestResetEmptiesButKeepsMultiplicity(t *testing.T) {
	r := repository.New(2, 2)
	r.Resize(3)
	if err := r.Update(batch([]float64{1, 2}, 2), []int{7}); err != nil {
		t.Fatal(err)
	}

	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("len after reset = %d, want 0", r.Len())
	}
	if r.Capacity() != 6 {
		t.Fatalf("capacity after reset = %d, want 6", r.Capacity())
	}
}

func TestSnapshotAccessors(t *testing.T) {
	r := repository.New(2, 2)
	if err := r.Update(batch([]float64{1, 2, 3, 4}, 2), []int{5, 6}); err != nil {
		t.Fatal(err)
	}

	emb := r.Embeddings()
	if !emb.Shape().Eq(tensor.Shape{2, 2}) {
		t.Fatalf("embeddings shape = %v, want (2, 2)", emb.Shape())
	}
	labels := r.Labels()
	labels[0] = 99
	if _, l := r.At(0); l != 5 {
		t.Error("Labels must return a copy")
	}
}
