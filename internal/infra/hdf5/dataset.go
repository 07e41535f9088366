package hdf5

import (
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// Dataset serves model inputs from an HDF5 input database with the datasets
// `data` (N x C x H x W or N x H x W x C), `label` and an optional explicit
// `index` mapping.
type Dataset struct {
	mu     sync.Mutex
	name   string
	file   *hdf5.File
	data   *hdf5.Dataset
	shape  []int
	labels *labelIndex
	index  []int64 // nil when indices are implicit
	lm     *workspace.LabelMap
	closed bool
}

var _ workspace.Dataset = (*Dataset)(nil)

// OpenDataset opens an HDF5 input database read-only. The HDF5 library is
// not assumed to be thread-safe, so all access is serialized per store.
func OpenDataset(name, path string, lm *workspace.LabelMap) (*Dataset, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open input database %s: %w", path, err)
	}

	data, err := file.OpenDataset("data")
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("input database %s: missing data: %w", path, err)
	}
	shape, err := dims(data)
	if err != nil {
		data.Close()
		file.Close()
		return nil, err
	}

	labelDS, err := file.OpenDataset("label")
	if err != nil {
		data.Close()
		file.Close()
		return nil, fmt.Errorf("input database %s: missing label: %w", path, err)
	}
	labels, err := loadLabels(labelDS)
	labelDS.Close()
	if err != nil {
		data.Close()
		file.Close()
		return nil, err
	}

	var index []int64
	if indexDS, err := file.OpenDataset("index"); err == nil {
		index, err = readInts(indexDS)
		indexDS.Close()
		if err != nil {
			data.Close()
			file.Close()
			return nil, err
		}
	}

	return &Dataset{
		name:   name,
		file:   file,
		data:   data,
		shape:  shape,
		labels: labels,
		index:  index,
		lm:     lm,
	}, nil
}

func (d *Dataset) Name() string { return d.name }

func (d *Dataset) Len() int { return d.shape[0] }

// Sample reads one sample. With an explicit index dataset the data row is
// remapped; labels are always positional.
func (d *Dataset) Sample(index int) (*workspace.Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, workspace.ErrClosed
	}
	if index < 0 || index >= d.labels.len() {
		return nil, fmt.Errorf("sample %d: %w", index, workspace.ErrNotFound)
	}

	dataIndex := index
	if d.index != nil {
		dataIndex = int(d.index[index])
	}
	if dataIndex < 0 || dataIndex >= d.shape[0] {
		return nil, fmt.Errorf("sample %d: %w", index, workspace.ErrNotFound)
	}

	raw, err := readRow(d.data, d.shape, dataIndex)
	if err != nil {
		return nil, err
	}
	_, names, err := d.labels.resolve(index, d.lm)
	if err != nil {
		return nil, err
	}

	tensor := workspace.NewTensor(raw, d.shape[1:]).Denormalize()
	return &workspace.Sample{Index: index, Labels: names, Data: tensor}, nil
}

func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.data.Close()
	return d.file.Close()
}
