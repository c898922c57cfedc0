// Package fill implements the bounded-memory accumulation loop that
// refreshes a time-series representation repository from an encoder and,
// optionally, builds the auxiliary contrastive dataset along the way.
package fill

import (
	"fmt"
	"log"
	"time"

	"github.com/grexie/anomaly/pkg/dataset"
	"github.com/grexie/anomaly/pkg/device"
	"github.com/grexie/anomaly/pkg/encoder"
	"github.com/grexie/anomaly/pkg/meter"
	"github.com/grexie/anomaly/pkg/repository"
	"github.com/grexie/anomaly/pkg/ts"
	"github.com/jedib0t/go-pretty/v6/progress"
	"gorgonia.org/tensor"
)

// Options configures one fill pass.
type Options struct {
	// Augment enables the weak/strong augmentation branches. The primary
	// repository is resized to multiplicity 3 (original + weak + strong)
	// before the loop starts.
	Augment bool

	// AugRepository is an optional secondary sink. It receives every
	// original embedding and, when Augment is set, every strong-augmented
	// embedding.
	AugRepository *repository.Repository

	// Workers and BatchSize configure the wrapped contrastive loader.
	Workers   int
	BatchSize int

	// ContrastivePath, when non-empty, is where the wrapped contrastive
	// loader is persisted after the pass.
	ContrastivePath string

	// Backend is the compute backend the pass targets. Defaults to the
	// process-resolved backend.
	Backend *device.Backend
}

// Fill runs one complete pass over the loader, encoding every sample
// (and augmented variant, when enabled) into the repository in arrival
// order. The encoder runs in eval mode; this is an inference pass, not a
// training step. Repositories are left partially filled on error and
// must be reset by the caller before a retry.
func Fill(pw progress.Writer, loader ts.Loader, enc encoder.Encoder, repo *repository.Repository, opts Options) (*dataset.Loader, error) {
	backend := opts.Backend
	if backend == nil {
		backend = device.Resolve()
	}

	enc.Eval()
	repo.Reset()
	if opts.AugRepository != nil {
		opts.AugRepository.Reset()
	}
	if opts.Augment {
		repo.Resize(3)
	}

	var tracker *progress.Tracker
	if pw != nil {
		tracker = &progress.Tracker{
			Message: "Fill TS Repository",
			Total:   int64(loader.Len()),
			Units:   progress.UnitsDefault,
		}
		pw.AppendTracker(tracker)
		tracker.Start()
	}

	encodeTime := meter.NewAverageMeter("encode", "%.4fs")
	pm := meter.NewProgressMeter(loader.Len(), []*meter.AverageMeter{encodeTime}, "Fill TS Repository ")

	var acc *dataset.Accumulator
	if opts.Augment {
		acc = dataset.NewAccumulator()
	}

	for i := 0; ; i++ {
		batch, ok := loader.Next()
		if !ok {
			break
		}
		if err := batch.Validate(); err != nil {
			return nil, fmt.Errorf("batch %d: %v", i, err)
		}
		if opts.Augment && batch.WeakAug == nil {
			return nil, fmt.Errorf("batch %d: augmentation enabled but batch has no augmented fields", i)
		}

		org := backend.FromHost(batch.Org)
		emb, err := encodeVariant(backend, enc, org, encodeTime)
		if err != nil {
			return nil, fmt.Errorf("batch %d: ts_org: %v", i, err)
		}
		if err := repo.Update(emb, batch.Target); err != nil {
			return nil, fmt.Errorf("batch %d: %v", i, err)
		}
		if opts.AugRepository != nil {
			if err := opts.AugRepository.Update(emb, batch.Target); err != nil {
				return nil, fmt.Errorf("batch %d: secondary repository: %v", i, err)
			}
		}

		if tracker != nil {
			tracker.Increment(1)
		}
		if i%100 == 0 {
			pm.Display(i)
			backend.ReclaimHint()
		}

		if opts.Augment {
			hostOrg, err := org.ToHost()
			if err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}
			if err := acc.Append(hostOrg, batch.Target); err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}

			weak := backend.FromHost(batch.WeakAug)
			weakTags := tagged(repository.WeakTag, batch.Size())
			wEmb, err := encodeVariant(backend, enc, weak, encodeTime)
			if err != nil {
				return nil, fmt.Errorf("batch %d: ts_w_augment: %v", i, err)
			}
			if err := repo.Update(wEmb, weakTags); err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}
			hostWeak, err := weak.ToHost()
			if err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}
			if err := acc.Append(hostWeak, weakTags); err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}

			strong := backend.FromHost(batch.StrongAug)
			strongTags := tagged(repository.StrongTag, batch.Size())
			sEmb, err := encodeVariant(backend, enc, strong, encodeTime)
			if err != nil {
				return nil, fmt.Errorf("batch %d: ts_ss_augment: %v", i, err)
			}
			if err := repo.Update(sEmb, strongTags); err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}
			if opts.AugRepository != nil {
				if err := opts.AugRepository.Update(sEmb, strongTags); err != nil {
					return nil, fmt.Errorf("batch %d: secondary repository: %v", i, err)
				}
			}
			hostStrong, err := strong.ToHost()
			if err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}
			if err := acc.Append(hostStrong, strongTags); err != nil {
				return nil, fmt.Errorf("batch %d: %v", i, err)
			}

			if i%50 == 0 {
				backend.ReclaimHint()
			}
		} else {
			org.Release()
		}
	}

	if tracker != nil {
		tracker.MarkAsDone()
	}

	if !opts.Augment {
		return nil, nil
	}

	log.Println("concatenating accumulated contrastive data on host")
	ds, err := acc.Concat()
	if err != nil {
		return nil, err
	}

	conLoader, err := dataset.NewLoader(ds, dataset.LoaderConfig{
		Workers:   opts.Workers,
		BatchSize: opts.BatchSize,
		Shuffle:   false,
		DropLast:  false,
		PinMemory: false,
	})
	if err != nil {
		return nil, err
	}

	if opts.ContrastivePath != "" {
		if err := conLoader.Save(opts.ContrastivePath); err != nil {
			return nil, err
		}
		log.Printf("saved contrastive dataset to %s", opts.ContrastivePath)
	}
	backend.ReclaimHint()

	return conLoader, nil
}

// encodeVariant reshapes a device-resident batch to [batch, channel,
// window], encodes it, and moves the embedding straight back to the host
// arena. The input handle keeps its original shape and stays device
// resident for the caller to transfer or release.
func encodeVariant(backend *device.Backend, enc encoder.Encoder, h *device.Handle, m *meter.AverageMeter) (*tensor.Dense, error) {
	t, err := h.Tensor()
	if err != nil {
		return nil, err
	}

	shape := append([]int{}, t.Shape()...)
	if err := ts.ChannelsFirst(t); err != nil {
		return nil, err
	}

	start := time.Now()
	output, err := enc.Encode(t)
	if err != nil {
		return nil, err
	}
	m.Update(time.Since(start).Seconds(), 1)

	if err := t.Reshape(shape...); err != nil {
		return nil, err
	}

	return backend.Adopt(output).ToHost()
}

func tagged(tag, n int) []int {
	tags := make([]int, n)
	for i := range tags {
		tags[i] = tag
	}
	return tags
}
