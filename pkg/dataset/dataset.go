// Package dataset builds and persists the auxiliary contrastive dataset:
// raw and augmented samples accumulated during a fill pass, concatenated
// in arrival order and wrapped for a later training stage.
package dataset

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Accumulator holds per-batch tensors and their tagged labels for the
// duration of one fill pass. Buffers are consumed exactly once by Concat
// and released immediately after.
type Accumulator struct {
	data     []*tensor.Dense
	labels   [][]int
	samples  int
	consumed bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append buffers one host-resident batch. The tensor must not be
// mutated by the caller afterwards.
func (a *Accumulator) Append(t *tensor.Dense, labels []int) error {
	if a.consumed {
		return fmt.Errorf("accumulator already consumed by Concat")
	}
	if t.Shape()[0] != len(labels) {
		return fmt.Errorf("batch size %d does not match label count %d", t.Shape()[0], len(labels))
	}
	a.data = append(a.data, t)
	a.labels = append(a.labels, labels)
	a.samples += len(labels)
	return nil
}

func (a *Accumulator) Batches() int { return len(a.data) }

func (a *Accumulator) Samples() int { return a.samples }

// Concat joins all buffered batches along the sample axis, in arrival
// order, and releases the buffers. Mismatched non-batch dimensions are a
// configuration error.
func (a *Accumulator) Concat() (*Dataset, error) {
	if a.consumed {
		return nil, fmt.Errorf("accumulator already consumed by Concat")
	}
	a.consumed = true

	if len(a.data) == 0 {
		return &Dataset{}, nil
	}

	sample := a.data[0].Shape()[1:]
	for i, t := range a.data {
		if !tensor.Shape(t.Shape()[1:]).Eq(tensor.Shape(sample)) {
			return nil, fmt.Errorf("batch %d sample shape %v does not match %v", i, t.Shape()[1:], sample)
		}
	}

	per := tensor.Shape(sample).TotalSize()
	backing := make([]float64, 0, a.samples*per)
	labels := make([]int, 0, a.samples)
	for i, t := range a.data {
		backing = append(backing, t.Data().([]float64)...)
		labels = append(labels, a.labels[i]...)
	}

	shape := append([]int{a.samples}, sample...)
	data := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))

	a.data = nil
	a.labels = nil

	return &Dataset{data: data, labels: labels}, nil
}

// Dataset is an immutable (data tensor, label slice) pair with
// index-based access in accumulation order.
type Dataset struct {
	data   *tensor.Dense
	labels []int
}

func NewDataset(data *tensor.Dense, labels []int) (*Dataset, error) {
	if data.Shape()[0] != len(labels) {
		return nil, fmt.Errorf("data leading dimension %d does not match label count %d", data.Shape()[0], len(labels))
	}
	return &Dataset{data: data, labels: labels}, nil
}

func (d *Dataset) Len() int { return len(d.labels) }

// SampleShape returns the non-batch dimensions of one sample.
func (d *Dataset) SampleShape() []int {
	if d.data == nil {
		return nil
	}
	return d.data.Shape()[1:]
}

// At returns the i-th sample's raw values and label, in arrival order.
func (d *Dataset) At(i int) ([]float64, int, error) {
	if i < 0 || i >= d.Len() {
		return nil, 0, fmt.Errorf("index %d out of range [0,%d)", i, d.Len())
	}
	per := tensor.Shape(d.SampleShape()).TotalSize()
	raw := d.data.Data().([]float64)
	return raw[i*per : (i+1)*per], d.labels[i], nil
}
