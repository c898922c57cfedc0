// Package encoder defines the trained encoder collaborators that map a
// windowed time-series batch to fixed-length embedding vectors.
package encoder

import "gorgonia.org/tensor"

// Encoder maps an input batch [batch, channel, window] to an embedding
// batch [batch, feature]. Eval switches the encoder to its
// non-learning mode, in which Encode is deterministic for identical
// input.
type Encoder interface {
	Eval()
	Encode(x *tensor.Dense) (*tensor.Dense, error)
}
