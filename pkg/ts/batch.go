package ts

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Batch is one loader-produced group of windowed samples. Org is
// [batch, window] or [batch, window, channels]; WeakAug and StrongAug,
// when present, share Org's shape sample for sample.
type Batch struct {
	Org       *tensor.Dense
	Target    []int
	WeakAug   *tensor.Dense
	StrongAug *tensor.Dense
}

func (b Batch) Size() int {
	if b.Org == nil {
		return 0
	}
	return b.Org.Shape()[0]
}

func (b Batch) Validate() error {
	if b.Org == nil {
		return fmt.Errorf("batch missing ts_org field")
	}
	shape := b.Org.Shape()
	if len(shape) != 2 && len(shape) != 3 {
		return fmt.Errorf("ts_org must be 2-D or 3-D, got shape %v", shape)
	}
	if len(b.Target) != shape[0] {
		return fmt.Errorf("target length %d does not match batch size %d", len(b.Target), shape[0])
	}
	if (b.WeakAug == nil) != (b.StrongAug == nil) {
		return fmt.Errorf("augmented fields must be present together: weak=%v strong=%v", b.WeakAug != nil, b.StrongAug != nil)
	}
	if b.WeakAug != nil {
		if !b.WeakAug.Shape().Eq(shape) {
			return fmt.Errorf("ts_w_augment shape %v does not match ts_org shape %v", b.WeakAug.Shape(), shape)
		}
		if !b.StrongAug.Shape().Eq(shape) {
			return fmt.Errorf("ts_ss_augment shape %v does not match ts_org shape %v", b.StrongAug.Shape(), shape)
		}
	}
	return nil
}

// ChannelsFirst reshapes a sample tensor into the [batch, channel, window]
// layout the encoder consumes. A 2-D [batch, window] input is treated as
// single-channel.
func ChannelsFirst(t *tensor.Dense) error {
	shape := t.Shape()
	switch len(shape) {
	case 2:
		return t.Reshape(shape[0], 1, shape[1])
	case 3:
		return t.Reshape(shape[0], shape[2], shape[1])
	default:
		return fmt.Errorf("cannot normalize tensor of shape %v to [batch, channel, window]", shape)
	}
}
