package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"gorgonia.org/tensor"
)

type artifactMeta struct {
	Workers     int   `json:"workers"`
	BatchSize   int   `json:"batchSize"`
	DropLast    bool  `json:"dropLast"`
	PinMemory   bool  `json:"pinMemory"`
	Samples     int   `json:"samples"`
	SampleShape []int `json:"sampleShape"`
	Records     int   `json:"records"`
}

type artifactRecord struct {
	Data   []float64 `json:"data"`
	Labels []int     `json:"labels"`
}

const recordChunk = 1024

// Save serializes the wrapped loader to a leveldb at path: one meta
// record plus fixed-size sample chunks keyed in order. Consumers
// deserialize it with Open in a separate process invocation.
func (l *Loader) Save(path string) error {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return fmt.Errorf("unable to open dataset artifact %s: %v", path, err)
	}
	defer db.Close()

	meta := artifactMeta{
		Workers:     l.cfg.Workers,
		BatchSize:   l.cfg.BatchSize,
		DropLast:    l.cfg.DropLast,
		PinMemory:   l.cfg.PinMemory,
		Samples:     l.ds.Len(),
		SampleShape: l.ds.SampleShape(),
		Records:     (l.ds.Len() + recordChunk - 1) / recordChunk,
	}
	if b, err := json.Marshal(meta); err != nil {
		return err
	} else if err := db.Put([]byte("meta"), b, nil); err != nil {
		return fmt.Errorf("unable to write dataset meta: %v", err)
	}

	per := tensor.Shape(l.ds.SampleShape()).TotalSize()
	var raw []float64
	if l.ds.data != nil {
		raw = l.ds.data.Data().([]float64)
	}
	for rec := 0; rec < meta.Records; rec++ {
		start := rec * recordChunk
		end := start + recordChunk
		if end > l.ds.Len() {
			end = l.ds.Len()
		}
		record := artifactRecord{
			Data:   raw[start*per : end*per],
			Labels: l.ds.labels[start:end],
		}
		b, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := db.Put(fmt.Appendf([]byte{}, "record-%08d", rec), b, nil); err != nil {
			return fmt.Errorf("unable to write dataset record %d: %v", rec, err)
		}
	}
	return nil
}

// Open deserializes a loader-wrapped dataset previously written by Save.
func Open(path string) (*Loader, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open dataset artifact %s: %v", path, err)
	}
	defer db.Close()

	var meta artifactMeta
	if b, err := db.Get([]byte("meta"), nil); err != nil {
		return nil, fmt.Errorf("unable to read dataset meta: %v", err)
	} else if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("unable to decode dataset meta: %v", err)
	}

	per := tensor.Shape(meta.SampleShape).TotalSize()
	backing := make([]float64, 0, meta.Samples*per)
	labels := make([]int, 0, meta.Samples)

	iter := db.NewIterator(util.BytesPrefix([]byte("record-")), nil)
	defer iter.Release()
	for iter.Next() {
		var record artifactRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, fmt.Errorf("unable to decode dataset record %s: %v", iter.Key(), err)
		}
		backing = append(backing, record.Data...)
		labels = append(labels, record.Labels...)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	if len(labels) != meta.Samples {
		return nil, fmt.Errorf("dataset artifact %s is truncated: have %d samples, meta says %d", path, len(labels), meta.Samples)
	}

	ds := &Dataset{labels: labels}
	if meta.Samples > 0 {
		shape := append([]int{meta.Samples}, meta.SampleShape...)
		ds.data = tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
	}

	return NewLoader(ds, LoaderConfig{
		Workers:   meta.Workers,
		BatchSize: meta.BatchSize,
		DropLast:  meta.DropLast,
		PinMemory: meta.PinMemory,
	})
}
