// Package augment synthesizes the weak and strong contrastive variants
// of windowed time-series samples. Both transforms are deterministic at
// inference: weak is a fixed amplitude scaling, strong draws its jitter
// from a seeded source.
package augment

import (
	"math/rand"

	"github.com/grexie/anomaly/pkg/ts"
	"gorgonia.org/tensor"
)

const (
	weakScale    = 0.9
	strongSigma  = 0.05
	strongChunks = 4
)

// Weak scales every value by a fixed coefficient.
func Weak(t *tensor.Dense) *tensor.Dense {
	out := t.Clone().(*tensor.Dense)
	data := out.Data().([]float64)
	for i := range data {
		data[i] *= weakScale
	}
	return out
}

// Strong applies seeded per-element jitter and shuffles contiguous
// subsequences within each sample.
func Strong(t *tensor.Dense, seed int64) *tensor.Dense {
	rng := rand.New(rand.NewSource(seed))
	out := t.Clone().(*tensor.Dense)
	data := out.Data().([]float64)

	for i := range data {
		data[i] *= 1 + (rng.Float64()*2-1)*strongSigma
	}

	b := t.Shape()[0]
	per := len(data) / b
	chunk := per / strongChunks
	if chunk == 0 {
		return out
	}
	for s := 0; s < b; s++ {
		sample := data[s*per : (s+1)*per]
		for _, j := range rng.Perm(strongChunks) {
			k := rng.Intn(strongChunks)
			if j == k {
				continue
			}
			a, bb := sample[j*chunk:(j+1)*chunk], sample[k*chunk:(k+1)*chunk]
			for n := range a {
				a[n], bb[n] = bb[n], a[n]
			}
		}
	}
	return out
}

// Loader decorates a source loader, filling the augmented fields of each
// batch that does not already carry them. The per-batch seed is derived
// from the base seed and the batch index, so identical passes produce
// identical variants.
type Loader struct {
	src  ts.Loader
	seed int64
	i    int64
}

func NewLoader(src ts.Loader, seed int64) *Loader {
	return &Loader{src: src, seed: seed}
}

func (l *Loader) Next() (ts.Batch, bool) {
	b, ok := l.src.Next()
	if !ok {
		return b, false
	}
	if b.WeakAug == nil && b.Org != nil {
		b.WeakAug = Weak(b.Org)
		b.StrongAug = Strong(b.Org, l.seed+l.i)
	}
	l.i++
	return b, true
}

func (l *Loader) Len() int { return l.src.Len() }

func (l *Loader) Reset() {
	l.i = 0
	l.src.Reset()
}
