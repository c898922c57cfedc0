package fill

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Params carries the env-driven pipeline configuration.
type Params struct {
	WindowSize    int
	Channels      int
	BatchSize     int
	Workers       int
	EmbeddingSize int
	Augment       bool
	Seed          int64

	DatasetPath     string
	ContrastivePath string
	EncoderURL      string
}

func NewParams() Params {
	return Params{
		WindowSize:    WindowSize(),
		Channels:      Channels(),
		BatchSize:     BatchSize(),
		Workers:       Workers(),
		EmbeddingSize: EmbeddingSize(),
		Augment:       Augment(),
		Seed:          Seed(),

		DatasetPath:     DatasetPath(),
		ContrastivePath: ContrastivePath(),
		EncoderURL:      EncoderURL(),
	}
}

func (p *Params) Write(w io.Writer, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"ANOMALY_WINDOW_SIZE", fmt.Sprintf("%d", p.WindowSize)},
		{"ANOMALY_CHANNELS", fmt.Sprintf("%d", p.Channels)},
		{"ANOMALY_BATCH_SIZE", fmt.Sprintf("%d", p.BatchSize)},
		{"ANOMALY_NUM_WORKERS", fmt.Sprintf("%d", p.Workers)},
		{"ANOMALY_EMBEDDING_SIZE", fmt.Sprintf("%d", p.EmbeddingSize)},
		{"ANOMALY_REAL_AUGMENT", fmt.Sprintf("%v", p.Augment)},
		{"ANOMALY_SEED", fmt.Sprintf("%d", p.Seed)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"ANOMALY_DATASET_PATH", p.DatasetPath},
		{"ANOMALY_CONTRASTIVE_PATH", p.ContrastivePath},
		{"ANOMALY_ENCODER_URL", p.EncoderURL},
	})
	t.Render()
}

func envInt(name string, def func() int, dec func(v int) int) func() int {
	return func() int {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 32); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = int(v)
			}
		}
		return dec(value)
	}
}

func envInt64(name string, def func() int64) func() int64 {
	return func() int64 {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 64); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return value
	}
}

func envBool(name string, def func() bool) func() bool {
	return func() bool {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseBool(v); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return value
	}
}

func envString(name string, def func() string) func() string {
	return func() string {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			value = v
		}
		return value
	}
}

var (
	WindowSize = envInt("ANOMALY_WINDOW_SIZE", func() int {
		return 200
	}, BoundWindowSize)
	Channels = envInt("ANOMALY_CHANNELS", func() int {
		return 1
	}, BoundChannels)
	BatchSize = envInt("ANOMALY_BATCH_SIZE", func() int {
		return 128
	}, BoundBatchSize)
	Workers = envInt("ANOMALY_NUM_WORKERS", func() int {
		return 4
	}, BoundWorkers)
	EmbeddingSize = envInt("ANOMALY_EMBEDDING_SIZE", func() int {
		return 64
	}, BoundEmbeddingSize)
	Augment = envBool("ANOMALY_REAL_AUGMENT", func() bool { return false })
	Seed    = envInt64("ANOMALY_SEED", func() int64 { return 42 })
)

var (
	DatasetPath = envString("ANOMALY_DATASET_PATH", func() string {
		return "datasets/anomaly-dataset.db"
	})
	ContrastivePath = envString("ANOMALY_CONTRASTIVE_PATH", func() string {
		return "datasets/contrastive-dataset.db"
	})
	EncoderURL = envString("ANOMALY_ENCODER_URL", func() string { return "" })
)
