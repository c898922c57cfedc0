package ts

// Prefetcher pulls batches from the wrapped loader on a background
// goroutine so the consumer never waits on batch construction. Prefetch
// is parallel, consumption is serial; arrival order is preserved.
type Prefetcher struct {
	src   Loader
	depth int
	ch    chan Batch
}

func NewPrefetcher(src Loader, depth int) *Prefetcher {
	if depth < 1 {
		depth = 1
	}
	p := &Prefetcher{src: src, depth: depth}
	p.start()
	return p
}

func (p *Prefetcher) start() {
	ch := make(chan Batch, p.depth)
	p.ch = ch
	go func() {
		defer close(ch)
		for {
			b, ok := p.src.Next()
			if !ok {
				return
			}
			ch <- b
		}
	}()
}

func (p *Prefetcher) Next() (Batch, bool) {
	b, ok := <-p.ch
	return b, ok
}

func (p *Prefetcher) Len() int { return p.src.Len() }

// Reset drains any batches still in flight, rewinds the source and
// restarts the prefetch goroutine.
func (p *Prefetcher) Reset() {
	for range p.ch {
	}
	p.src.Reset()
	p.start()
}
