package encoder_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grexie/anomaly/pkg/encoder"
	"gorgonia.org/tensor"
)

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewMLPValidatesWeights(t *testing.T) {
	if _, err := encoder.NewMLP(nil, 0); err == nil {
		t.Error("expected error for empty weights")
	}

	vec := tensor.New(tensor.WithShape(4), tensor.WithBacking(uniform(4, 1)))
	if _, err := encoder.NewMLP([]tensor.Tensor{vec}, 0); err == nil {
		t.Error("expected error for non-matrix weight")
	}

	w0 := tensor.New(tensor.WithShape(4, 3), tensor.WithBacking(uniform(12, 1)))
	w1 := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking(uniform(4, 1)))
	if _, err := encoder.NewMLP([]tensor.Tensor{w0, w1}, 0); err == nil {
		t.Error("expected error for mismatched layer dimensions")
	}
}

func TestMLPEncode(t *testing.T) {
	w0 := tensor.New(tensor.WithShape(4, 3), tensor.WithBacking(uniform(12, 0.5)))
	w1 := tensor.New(tensor.WithShape(3, 2), tensor.WithBacking(uniform(6, 0.5)))
	m, err := encoder.NewMLP([]tensor.Tensor{w0, w1}, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	m.Eval()

	if m.InputDim() != 4 || m.OutputDim() != 2 {
		t.Fatalf("dims = (%d, %d), want (4, 2)", m.InputDim(), m.OutputDim())
	}

	// two samples of all-ones over [batch=2, channel=1, window=4]
	x := tensor.New(tensor.WithShape(2, 1, 4), tensor.WithBacking(uniform(8, 1)))
	out, err := m.Encode(x)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !out.Shape().Eq(tensor.Shape{2, 2}) {
		t.Fatalf("output shape = %v, want (2, 2)", out.Shape())
	}

	// layer 1: 4*1*0.5 = 2 per hidden unit; layer 2: 3*2*0.5 = 3
	for i, v := range out.Data().([]float64) {
		if v != 3 {
			t.Errorf("output %d = %v, want 3", i, v)
		}
	}

	// eval mode is deterministic
	again, err := m.Encode(x)
	if err != nil {
		t.Fatal(err)
	}
	a, b := out.Data().([]float64), again.Data().([]float64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("eval-mode encode is not deterministic")
		}
	}
}

func TestMLPEncodeRejectsBadShapes(t *testing.T) {
	m, err := encoder.NewGlorotMLP([]int{4, 2}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	m.Eval()

	flat := tensor.New(tensor.WithShape(2, 4), tensor.WithBacking(uniform(8, 1)))
	if _, err := m.Encode(flat); err == nil {
		t.Error("expected error for 2-D input")
	}

	wide := tensor.New(tensor.WithShape(2, 1, 5), tensor.WithBacking(uniform(10, 1)))
	if _, err := m.Encode(wide); err == nil {
		t.Error("expected error for mismatched window size")
	}
}

func TestRemoteEncode(t *testing.T) {
	var gotEval bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Shape []int     `json:"shape"`
			Data  []float64 `json:"data"`
			Eval  bool      `json:"eval"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotEval = req.Eval
		embeddings := make([][]float64, req.Shape[0])
		for i := range embeddings {
			embeddings[i] = []float64{float64(i), float64(i) * 2}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()

	r := encoder.NewRemote(srv.URL)
	r.Eval()

	x := tensor.New(tensor.WithShape(3, 1, 4), tensor.WithBacking(uniform(12, 1)))
	out, err := r.Encode(x)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !gotEval {
		t.Error("eval flag was not forwarded")
	}
	if !out.Shape().Eq(tensor.Shape{3, 2}) {
		t.Fatalf("output shape = %v, want (3, 2)", out.Shape())
	}
	if v := out.Data().([]float64); v[4] != 2 || v[5] != 4 {
		t.Errorf("unexpected embedding values: %v", v)
	}
}

func TestRemoteEncodeSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := encoder.NewRemote(srv.URL)
	x := tensor.New(tensor.WithShape(1, 1, 4), tensor.WithBacking(uniform(4, 1)))
	if _, err := r.Encode(x); err == nil {
		t.Fatal("expected API error to surface")
	}
}
