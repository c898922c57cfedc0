package ts

// Loader produces a finite ordered sequence of batches. Next returns
// false once the sequence is exhausted; Reset rewinds to the first batch.
type Loader interface {
	Next() (Batch, bool)
	Len() int
	Reset()
}

type SliceLoader struct {
	batches []Batch
	pos     int
}

func NewSliceLoader(batches []Batch) *SliceLoader {
	return &SliceLoader{batches: batches}
}

func (l *SliceLoader) Next() (Batch, bool) {
	if l.pos >= len(l.batches) {
		return Batch{}, false
	}
	b := l.batches[l.pos]
	l.pos++
	return b, true
}

func (l *SliceLoader) Len() int { return len(l.batches) }

func (l *SliceLoader) Reset() { l.pos = 0 }
