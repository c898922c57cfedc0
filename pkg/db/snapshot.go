package db

import (
	"context"
	"time"

	"github.com/grexie/anomaly/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotCollection = "repository_snapshots"

// Snapshot is one filled repository persisted for downstream clustering
// and anomaly scoring.
type Snapshot struct {
	PassID       string      `bson:"passId"`
	CreatedAt    time.Time   `bson:"createdAt"`
	Dim          int         `bson:"dim"`
	Multiplicity int         `bson:"multiplicity"`
	Embeddings   [][]float64 `bson:"embeddings"`
	Labels       []int       `bson:"labels"`
}

// SaveSnapshot upserts the repository contents under passID.
func SaveSnapshot(db *mongo.Database, ctx context.Context, passID string, repo *repository.Repository) error {
	name := "idx_repository_snapshots_passId"
	if err := EnsureIndex(db, ctx, snapshotCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "passId", Value: 1}},
		Options: options.Index().SetName(name).SetUnique(true),
	}); err != nil {
		return err
	}

	embeddings := make([][]float64, repo.Len())
	labels := make([]int, repo.Len())
	for i := 0; i < repo.Len(); i++ {
		v, l := repo.At(i)
		row := make([]float64, len(v))
		copy(row, v)
		embeddings[i] = row
		labels[i] = l
	}

	snapshot := Snapshot{
		PassID:       passID,
		CreatedAt:    time.Now(),
		Dim:          repo.Dim(),
		Multiplicity: repo.Multiplicity(),
		Embeddings:   embeddings,
		Labels:       labels,
	}

	_, err := WithTransaction(db, ctx, func(ctx context.Context) (any, error) {
		return db.Collection(snapshotCollection).ReplaceOne(ctx,
			bson.M{"passId": passID},
			snapshot,
			options.Replace().SetUpsert(true))
	})
	return err
}

// LoadSnapshot fetches a previously saved repository snapshot.
func LoadSnapshot(db *mongo.Database, ctx context.Context, passID string) (*Snapshot, error) {
	var snapshot Snapshot
	if err := db.Collection(snapshotCollection).FindOne(ctx, bson.M{"passId": passID}).Decode(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
