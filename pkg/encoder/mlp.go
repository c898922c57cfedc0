package encoder

import (
	"fmt"
	"math"
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP is a feed-forward encoder over the flattened window. The forward
// pass runs on a fresh gorgonia graph per batch; dropout is active only
// outside eval mode.
type MLP struct {
	weights []tensor.Tensor
	dropout float64
	eval    bool
}

func NewMLP(weights []tensor.Tensor, dropout float64) (*MLP, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("encoder needs at least one weight matrix")
	}
	for i, w := range weights {
		if len(w.Shape()) != 2 {
			return nil, fmt.Errorf("weight %d must be a matrix, got shape %v", i, w.Shape())
		}
		if i > 0 && weights[i-1].Shape()[1] != w.Shape()[0] {
			return nil, fmt.Errorf("weight %d input %d does not match weight %d output %d", i, w.Shape()[0], i-1, weights[i-1].Shape()[1])
		}
	}
	return &MLP{weights: weights, dropout: dropout}, nil
}

// NewGlorotMLP builds an encoder with Glorot-initialized weights for the
// given layer sizes, seeded for reproducibility.
func NewGlorotMLP(sizes []int, dropout float64, seed int64) (*MLP, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("need at least input and output sizes, got %v", sizes)
	}
	rng := rand.New(rand.NewSource(seed))
	weights := make([]tensor.Tensor, len(sizes)-1)
	for i := range weights {
		in, out := sizes[i], sizes[i+1]
		scale := math.Sqrt(2.0 / float64(in+out))
		backing := make([]float64, in*out)
		for j := range backing {
			backing[j] = rng.NormFloat64() * scale
		}
		weights[i] = tensor.New(tensor.WithShape(in, out), tensor.WithBacking(backing))
	}
	return NewMLP(weights, dropout)
}

func (m *MLP) Eval() { m.eval = true }

// InputDim returns the flattened window size the encoder accepts.
func (m *MLP) InputDim() int { return m.weights[0].Shape()[0] }

// OutputDim returns the embedding dimensionality.
func (m *MLP) OutputDim() int { return m.weights[len(m.weights)-1].Shape()[1] }

func (m *MLP) Encode(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("encoder input must be [batch, channel, window], got shape %v", shape)
	}
	b := shape[0]
	in := shape[1] * shape[2]
	if in != m.InputDim() {
		return nil, fmt.Errorf("input size %d does not match encoder input dimension %d", in, m.InputDim())
	}

	g := gorgonia.NewGraph()

	xVal := tensor.New(
		tensor.WithShape(b, in),
		tensor.WithBacking(x.Data().([]float64)))

	out := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(b, in),
		gorgonia.WithValue(xVal))

	for i, w := range m.weights {
		wNode := gorgonia.NewMatrix(g, tensor.Float64,
			gorgonia.WithShape(w.Shape()...),
			gorgonia.WithValue(w))
		out = gorgonia.Must(gorgonia.Mul(out, wNode))
		if i < len(m.weights)-1 {
			out = gorgonia.Must(gorgonia.Rectify(out))
			if !m.eval && m.dropout > 0 {
				out = gorgonia.Must(gorgonia.Dropout(out, m.dropout))
			}
		}
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward pass failed: %v", err)
	}

	data := out.Value().Data().([]float64)
	backing := make([]float64, len(data))
	copy(backing, data)

	return tensor.New(tensor.WithShape(b, m.OutputDim()), tensor.WithBacking(backing)), nil
}
