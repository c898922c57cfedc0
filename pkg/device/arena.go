package device

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Handle owns a tensor resident in the device arena. A tensor belongs to
// exactly one arena at a time: ToHost transfers ownership to the host
// arena and invalidates the handle, Release frees the device copy without
// transferring. Either way the handle is dead afterwards.
type Handle struct {
	backend *Backend
	data    *tensor.Dense
	moved   bool
}

// FromHost copies a host-resident tensor into the device arena. The
// caller keeps ownership of the source.
func (b *Backend) FromHost(t *tensor.Dense) *Handle {
	return &Handle{backend: b, data: t.Clone().(*tensor.Dense)}
}

// Adopt takes ownership of a tensor already produced on the device, such
// as an encoder output.
func (b *Backend) Adopt(t *tensor.Dense) *Handle {
	return &Handle{backend: b, data: t}
}

// Tensor returns the device-resident view for compute.
func (h *Handle) Tensor() (*tensor.Dense, error) {
	if h.moved {
		return nil, fmt.Errorf("tensor is no longer resident in the device arena")
	}
	return h.data, nil
}

// ToHost transfers ownership into the host arena. Subsequent use of the
// handle is an error.
func (h *Handle) ToHost() (*tensor.Dense, error) {
	if h.moved {
		return nil, fmt.Errorf("tensor was already transferred out of the device arena")
	}
	h.moved = true
	t := h.data
	h.data = nil
	return t, nil
}

// Release frees the device copy without a host transfer. Safe to call on
// a handle that was already moved.
func (h *Handle) Release() {
	h.moved = true
	h.data = nil
}
