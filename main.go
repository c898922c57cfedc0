package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/grexie/anomaly/pkg/augment"
	"github.com/grexie/anomaly/pkg/dataset"
	"github.com/grexie/anomaly/pkg/db"
	"github.com/grexie/anomaly/pkg/device"
	"github.com/grexie/anomaly/pkg/encoder"
	"github.com/grexie/anomaly/pkg/fill"
	"github.com/grexie/anomaly/pkg/repository"
	"github.com/grexie/anomaly/pkg/ts"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
)

func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

func main() {
	if _, ok := os.LookupEnv("ENV"); !ok {
		env := "development"
		os.Setenv("ENV", env)
	}
	loadEnv(".env."+os.Getenv("ENV")+".local", ".env."+os.Getenv("ENV"), ".env.local", ".env")

	p := fill.NewParams()
	p.Write(os.Stdout, "TS Representation Pipeline")

	backend := device.Resolve()
	log.Printf("compute backend: %s", backend.Kind())

	source, err := dataset.Open(p.DatasetPath)
	if err != nil {
		log.Fatalf("failed to open dataset %s: %v", p.DatasetPath, err)
	}
	samples := source.Dataset().Len()
	if samples == 0 {
		log.Fatalf("dataset %s is empty", p.DatasetPath)
	}

	inputDim := 1
	for _, d := range source.Dataset().SampleShape() {
		inputDim *= d
	}

	var enc encoder.Encoder
	if p.EncoderURL != "" {
		enc = encoder.NewRemote(p.EncoderURL)
	} else if m, err := encoder.NewGlorotMLP([]int{inputDim, 256, 128, p.EmbeddingSize}, 0.3, p.Seed); err != nil {
		log.Fatalf("failed to build encoder: %v", err)
	} else {
		enc = m
	}

	var loader ts.Loader = source
	if p.Augment {
		loader = augment.NewLoader(source, p.Seed)
	}
	if p.Workers > 0 {
		loader = ts.NewPrefetcher(loader, p.Workers)
	}

	repo := repository.New(samples, p.EmbeddingSize)
	var augRepo *repository.Repository
	if p.Augment {
		augRepo = repository.New(samples, p.EmbeddingSize)
		augRepo.Resize(2) // originals plus strong variants
	}

	pw := progress.NewWriter()
	pw.SetMessageLength(40)
	pw.SetNumTrackersExpected(1)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Options.PercentFormat = "%2.0f%%"
	go pw.Render()

	conLoader, err := fill.Fill(pw, loader, enc, repo, fill.Options{
		Augment:         p.Augment,
		AugRepository:   augRepo,
		Workers:         p.Workers,
		BatchSize:       p.BatchSize,
		ContrastivePath: p.ContrastivePath,
		Backend:         backend,
	})
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		log.Fatalf("fill pass failed: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Repository")
	t.AppendRows([]table.Row{
		{"Entries", fmt.Sprintf("%d", repo.Len())},
		{"Dimension", fmt.Sprintf("%d", repo.Dim())},
		{"Multiplicity", fmt.Sprintf("%d", repo.Multiplicity())},
	})
	if conLoader != nil {
		t.AppendRow(table.Row{"Contrastive Samples", fmt.Sprintf("%d", conLoader.Dataset().Len())})
	}
	t.Render()

	if _, ok := os.LookupEnv("MONGO_URL"); ok {
		mongo, err := db.ConnectMongo()
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		passID := time.Now().UTC().Format("2006-01-02T15:04:05Z")
		if err := db.SaveSnapshot(mongo, context.Background(), passID, repo); err != nil {
			log.Fatalf("failed to save repository snapshot: %v", err)
		}
		log.Printf("saved repository snapshot %s", passID)
	}
}
