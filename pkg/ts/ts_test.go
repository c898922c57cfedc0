package ts_test

import (
	"testing"

	"github.com/grexie/anomaly/pkg/ts"
	"gorgonia.org/tensor"
)

func dense(shape ...int) *tensor.Dense {
	n := 1
	for _, d := range shape {
		n *= d
	}
	backing := make([]float64, n)
	for i := range backing {
		backing[i] = float64(i)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
}

func TestValidate(t *testing.T) {
	b := ts.Batch{Org: dense(4, 50), Target: []int{0, 1, 2, 3}}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid batch rejected: %v", err)
	}

	cases := []struct {
		name  string
		batch ts.Batch
	}{
		{"missing org", ts.Batch{Target: []int{0}}},
		{"target mismatch", ts.Batch{Org: dense(4, 50), Target: []int{0}}},
		{"weak without strong", ts.Batch{Org: dense(2, 50), Target: []int{0, 1}, WeakAug: dense(2, 50)}},
		{"aug shape mismatch", ts.Batch{Org: dense(2, 50), Target: []int{0, 1}, WeakAug: dense(2, 40), StrongAug: dense(2, 50)}},
		{"1-D org", ts.Batch{Org: dense(50), Target: []int{0}}},
	}
	for _, c := range cases {
		if err := c.batch.Validate(); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestChannelsFirst(t *testing.T) {
	two := dense(4, 50)
	if err := ts.ChannelsFirst(two); err != nil {
		t.Fatal(err)
	}
	if !two.Shape().Eq(tensor.Shape{4, 1, 50}) {
		t.Fatalf("2-D reshape = %v, want (4, 1, 50)", two.Shape())
	}

	three := dense(4, 50, 3)
	if err := ts.ChannelsFirst(three); err != nil {
		t.Fatal(err)
	}
	if !three.Shape().Eq(tensor.Shape{4, 3, 50}) {
		t.Fatalf("3-D reshape = %v, want (4, 3, 50)", three.Shape())
	}
}

func TestSliceLoader(t *testing.T) {
	batches := []ts.Batch{
		{Org: dense(2, 10), Target: []int{0, 1}},
		{Org: dense(2, 10), Target: []int{2, 3}},
	}
	l := ts.NewSliceLoader(batches)
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}

	for pass := 0; pass < 2; pass++ {
		for i := 0; i < 2; i++ {
			b, ok := l.Next()
			if !ok {
				t.Fatalf("pass %d: batch %d missing", pass, i)
			}
			if b.Target[0] != 2*i {
				t.Fatalf("pass %d: batch %d out of order", pass, i)
			}
		}
		if _, ok := l.Next(); ok {
			t.Fatalf("pass %d: loader yielded past the end", pass)
		}
		l.Reset()
	}
}

func TestPrefetcherPreservesOrder(t *testing.T) {
	batches := make([]ts.Batch, 20)
	for i := range batches {
		batches[i] = ts.Batch{Org: dense(1, 5), Target: []int{i}}
	}
	p := ts.NewPrefetcher(ts.NewSliceLoader(batches), 4)

	if p.Len() != 20 {
		t.Fatalf("len = %d, want 20", p.Len())
	}

	for pass := 0; pass < 2; pass++ {
		for i := 0; i < 20; i++ {
			b, ok := p.Next()
			if !ok {
				t.Fatalf("pass %d: batch %d missing", pass, i)
			}
			if b.Target[0] != i {
				t.Fatalf("pass %d: got batch %d at position %d", pass, b.Target[0], i)
			}
		}
		if _, ok := p.Next(); ok {
			t.Fatalf("pass %d: prefetcher yielded past the end", pass)
		}
		p.Reset()
	}
}
