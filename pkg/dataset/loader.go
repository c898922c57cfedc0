package dataset

import (
	"fmt"

	"github.com/grexie/anomaly/pkg/ts"
	"gorgonia.org/tensor"
)

type LoaderConfig struct {
	Workers   int
	BatchSize int
	Shuffle   bool
	DropLast  bool
	PinMemory bool
}

// Loader batches a Dataset sequentially. It satisfies ts.Loader so a
// persisted contrastive dataset can drive a later training stage
// directly. Shuffling and tail-dropping are rejected up front: the
// contrastive stage depends on accumulation order.
type Loader struct {
	ds  *Dataset
	cfg LoaderConfig
	pos int
}

func NewLoader(ds *Dataset, cfg LoaderConfig) (*Loader, error) {
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.Shuffle {
		return nil, fmt.Errorf("contrastive dataset loader does not shuffle")
	}
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	return &Loader{ds: ds, cfg: cfg}, nil
}

func (l *Loader) Dataset() *Dataset { return l.ds }

func (l *Loader) Config() LoaderConfig { return l.cfg }

// Len returns the number of batches one pass yields.
func (l *Loader) Len() int {
	n := l.ds.Len()
	if n == 0 {
		return 0
	}
	if l.cfg.DropLast {
		return n / l.cfg.BatchSize
	}
	return (n + l.cfg.BatchSize - 1) / l.cfg.BatchSize
}

func (l *Loader) Reset() { l.pos = 0 }

func (l *Loader) Next() (ts.Batch, bool) {
	start := l.pos * l.cfg.BatchSize
	if start >= l.ds.Len() {
		return ts.Batch{}, false
	}
	end := start + l.cfg.BatchSize
	if end > l.ds.Len() {
		if l.cfg.DropLast {
			return ts.Batch{}, false
		}
		end = l.ds.Len()
	}
	l.pos++

	n := end - start
	sample := l.ds.SampleShape()
	per := tensor.Shape(sample).TotalSize()
	backing := make([]float64, n*per)
	labels := make([]int, n)
	raw := l.ds.data.Data().([]float64)
	copy(backing, raw[start*per:end*per])
	copy(labels, l.ds.labels[start:end])

	shape := append([]int{n}, sample...)
	return ts.Batch{
		Org:    tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)),
		Target: labels,
	}, true
}

// Prefetch wraps the loader with background prefetching sized to the
// configured worker count.
func (l *Loader) Prefetch() ts.Loader {
	if l.cfg.Workers < 1 {
		return l
	}
	return ts.NewPrefetcher(l, l.cfg.Workers)
}
