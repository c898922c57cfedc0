package device

import (
	"os"
	"runtime"
	"runtime/debug"
)

type Kind string

const (
	CPU  Kind = "cpu"
	CUDA Kind = "cuda"
)

// Backend is the compute backend every tensor operation in a fill pass
// targets. Resolve it once at process start and inject it; there is no
// package-level singleton.
type Backend struct {
	kind Kind
}

func Resolve() *Backend {
	kind := CPU
	if v, ok := os.LookupEnv("ANOMALY_DEVICE"); ok && Kind(v) == CUDA {
		kind = CUDA
	}
	return &Backend{kind: kind}
}

func (b *Backend) Kind() Kind { return b.kind }

// ReclaimHint asks the allocator to return freed blocks. It is advisory:
// the allocator owns final disposition, and callers must not rely on it
// for correctness.
func (b *Backend) ReclaimHint() {
	runtime.GC()
	debug.FreeOSMemory()
}
