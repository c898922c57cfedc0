package encoder

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"gorgonia.org/tensor"
)

type encodeRequest struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
	Eval  bool      `json:"eval"`
}

type encodeResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Remote encodes batches through an HTTP embedding service. The eval
// flag is forwarded with every request so the service runs its model in
// inference mode.
type Remote struct {
	client *resty.Client
	url    string
	eval   bool
}

func NewRemote(url string) *Remote {
	return &Remote{client: resty.New(), url: url}
}

func (r *Remote) Eval() { r.eval = true }

func (r *Remote) Encode(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("encoder input must be [batch, channel, window], got shape %v", shape)
	}
	b := shape[0]

	req := encodeRequest{
		Shape: shape,
		Data:  x.Data().([]float64),
		Eval:  r.eval,
	}

	var result encodeResponse
	resp, err := r.client.R().SetBody(req).SetResult(&result).Post(r.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api error response: %s - %s", resp.Status(), string(resp.Body()))
	}

	if len(result.Embeddings) != b {
		return nil, fmt.Errorf("embedding service returned %d vectors for batch of %d", len(result.Embeddings), b)
	}
	dim := len(result.Embeddings[0])
	backing := make([]float64, 0, b*dim)
	for i, v := range result.Embeddings {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
		backing = append(backing, v...)
	}

	return tensor.New(tensor.WithShape(b, dim), tensor.WithBacking(backing)), nil
}
