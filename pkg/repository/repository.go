// Package repository implements the time-series representation
// repository: an ordered, fixed-capacity store of (embedding, label)
// pairs accumulated over one full pass of a dataset and consumed
// downstream for clustering and anomaly scoring.
package repository

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Reserved label tags for augmented samples. These are contract
// constants shared with the class-count configuration of the training
// pipeline; do not invent new values.
const (
	WeakTag   = 2
	StrongTag = 4
)

type Repository struct {
	samples      int
	dim          int
	multiplicity int

	embeddings []float64
	labels     []int
	cursor     int
}

// New creates a repository with one slot per sample. Resize raises the
// per-sample slot multiplicity when synthetic variants are stored
// alongside originals.
func New(samples, dim int) *Repository {
	r := &Repository{samples: samples, dim: dim, multiplicity: 1}
	r.Reset()
	return r
}

func (r *Repository) Reset() {
	r.cursor = 0
	r.embeddings = make([]float64, 0, r.samples*r.multiplicity*r.dim)
	r.labels = make([]int, 0, r.samples*r.multiplicity)
}

// Resize sets the per-sample slot multiplicity and empties the store.
func (r *Repository) Resize(multiplicity int) {
	if multiplicity < 1 {
		multiplicity = 1
	}
	r.multiplicity = multiplicity
	r.Reset()
}

func (r *Repository) Capacity() int { return r.samples * r.multiplicity }

func (r *Repository) Len() int { return r.cursor }

func (r *Repository) Dim() int { return r.dim }

func (r *Repository) Multiplicity() int { return r.multiplicity }

// Update appends a batch of embeddings with their labels, in order,
// advancing the internal write cursor. Overflowing the configured
// capacity means the repository was sized wrongly for the number of
// variants and is fatal.
func (r *Repository) Update(embeddings *tensor.Dense, labels []int) error {
	shape := embeddings.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("embeddings must be [batch, feature], got shape %v", shape)
	}
	n, dim := shape[0], shape[1]
	if dim != r.dim {
		return fmt.Errorf("embedding dimension %d does not match repository dimension %d", dim, r.dim)
	}
	if len(labels) != n {
		return fmt.Errorf("label count %d does not match embedding batch size %d", len(labels), n)
	}
	if r.cursor+n > r.Capacity() {
		return fmt.Errorf("repository capacity exceeded: %d slots, writing %d at cursor %d", r.Capacity(), n, r.cursor)
	}

	r.embeddings = append(r.embeddings, embeddings.Data().([]float64)...)
	r.labels = append(r.labels, labels...)
	r.cursor += n
	return nil
}

// At returns the embedding vector and label stored at slot i.
func (r *Repository) At(i int) ([]float64, int) {
	return r.embeddings[i*r.dim : (i+1)*r.dim], r.labels[i]
}

// Embeddings snapshots the filled slots as a [len, dim] tensor.
func (r *Repository) Embeddings() *tensor.Dense {
	backing := make([]float64, r.cursor*r.dim)
	copy(backing, r.embeddings)
	return tensor.New(tensor.WithShape(r.cursor, r.dim), tensor.WithBacking(backing))
}

func (r *Repository) Labels() []int {
	out := make([]int, r.cursor)
	copy(out, r.labels)
	return out
}
