package hdf5

import (
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// AttributionStore serves relevance maps from an HDF5 attribution database
// with the datasets `attribution`, `label`, `prediction` and an optional
// `index` that maps storage positions to dataset sample indices.
type AttributionStore struct {
	mu          sync.Mutex
	file        *hdf5.File
	attribution *hdf5.Dataset
	attrShape   []int
	prediction  *hdf5.Dataset
	predShape   []int
	labels      *labelIndex
	indices     []int // dataset sample index per storage position
	position    map[int]int
	lm          *workspace.LabelMap
	closed      bool
}

var _ workspace.AttributionSource = (*AttributionStore)(nil)

// OpenAttributionStore opens an HDF5 attribution database read-only.
func OpenAttributionStore(path string, lm *workspace.LabelMap) (*AttributionStore, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open attribution database %s: %w", path, err)
	}

	s := &AttributionStore{file: file, lm: lm}
	fail := func(err error) (*AttributionStore, error) {
		s.release()
		return nil, err
	}

	if s.attribution, err = file.OpenDataset("attribution"); err != nil {
		return fail(fmt.Errorf("attribution database %s: missing attribution: %w", path, err))
	}
	if s.attrShape, err = dims(s.attribution); err != nil {
		return fail(err)
	}
	if s.prediction, err = file.OpenDataset("prediction"); err != nil {
		return fail(fmt.Errorf("attribution database %s: missing prediction: %w", path, err))
	}
	if s.predShape, err = dims(s.prediction); err != nil {
		return fail(err)
	}

	labelDS, err := file.OpenDataset("label")
	if err != nil {
		return fail(fmt.Errorf("attribution database %s: missing label: %w", path, err))
	}
	s.labels, err = loadLabels(labelDS)
	labelDS.Close()
	if err != nil {
		return fail(err)
	}

	n := s.attrShape[0]
	s.indices = make([]int, n)
	s.position = make(map[int]int, n)
	if indexDS, err := file.OpenDataset("index"); err == nil {
		raw, err := readInts(indexDS)
		indexDS.Close()
		if err != nil {
			return fail(err)
		}
		for pos, v := range raw {
			s.indices[pos] = int(v)
			s.position[int(v)] = pos
		}
	} else {
		for pos := range s.indices {
			s.indices[pos] = pos
			s.position[pos] = pos
		}
	}

	return s, nil
}

// Has reports whether the database holds an attribution for the dataset
// sample index.
func (s *AttributionStore) Has(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	_, ok := s.position[index]
	return ok
}

// Indices lists the dataset sample indices covered by this database in
// storage order.
func (s *AttributionStore) Indices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.indices...)
}

// Attribution reads the relevance map, labels and prediction vector of the
// attribution for the given dataset sample index.
func (s *AttributionStore) Attribution(index int) (*workspace.Attribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, workspace.ErrClosed
	}
	pos, ok := s.position[index]
	if !ok {
		return nil, fmt.Errorf("attribution %d: %w", index, workspace.ErrNotFound)
	}

	raw, err := readRow(s.attribution, s.attrShape, pos)
	if err != nil {
		return nil, err
	}
	prediction, err := readRow(s.prediction, s.predShape, pos)
	if err != nil {
		return nil, err
	}
	ref, names, err := s.labels.resolve(pos, s.lm)
	if err != nil {
		return nil, err
	}

	return &workspace.Attribution{
		Index:      index,
		LabelRef:   ref,
		Labels:     names,
		Prediction: prediction,
		Data:       workspace.NewTensor(raw, s.attrShape[1:]),
	}, nil
}

func (s *AttributionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.release()
	return nil
}

func (s *AttributionStore) release() {
	if s.attribution != nil {
		s.attribution.Close()
	}
	if s.prediction != nil {
		s.prediction.Close()
	}
	if s.file != nil {
		s.file.Close()
	}
}
