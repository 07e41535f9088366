package hdf5

import (
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"
)

// Writer creates an analysis database. Categories are written as groups,
// each with an `index` dataset, a spectral embedding under `embedding/` and
// one dataset per clustering under `cluster/`.
type Writer struct {
	mu     sync.Mutex
	file   *hdf5.File
	closed bool
}

// SpectralEmbeddingName is the dataset name of the embedding the offline
// pipeline produces.
const SpectralEmbeddingName = "spectral"

// CreateAnalysisDatabase creates (or truncates) an analysis database at path.
func CreateAnalysisDatabase(path string) (*Writer, error) {
	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("create analysis database %s: %w", path, err)
	}
	return &Writer{file: file}, nil
}

// WriteCategory writes one fully analyzed category: the attribution indices
// it covers, the spectral embedding with its eigenvalues and the clusterings
// computed on that embedding.
func (w *Writer) WriteCategory(category string, indices []int, embedding [][]float64, eigenValues []float64, clusterings map[string][]int32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("analysis database already closed")
	}
	if len(embedding) == 0 || len(embedding[0]) == 0 {
		return fmt.Errorf("category %q: empty embedding", category)
	}
	if len(indices) != len(embedding) {
		return fmt.Errorf("category %q: %d indices for %d embedding rows", category, len(indices), len(embedding))
	}

	group, err := w.file.CreateGroup(category)
	if err != nil {
		return err
	}
	defer group.Close()

	rawIndices := make([]uint32, len(indices))
	for i, v := range indices {
		rawIndices[i] = uint32(v)
	}
	indexDS, err := createDataset(group, "index", []uint{uint(len(rawIndices))}, hdf5.T_NATIVE_UINT32)
	if err != nil {
		return err
	}
	if err := indexDS.Write(&rawIndices); err != nil {
		indexDS.Close()
		return err
	}
	indexDS.Close()

	embGroup, err := group.CreateGroup("embedding")
	if err != nil {
		return err
	}
	defer embGroup.Close()

	rows, cols := len(embedding), len(embedding[0])
	flat := make([]float32, 0, rows*cols)
	for _, row := range embedding {
		if len(row) != cols {
			return fmt.Errorf("category %q: ragged embedding", category)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}
	embDS, err := createDataset(embGroup, SpectralEmbeddingName, []uint{uint(rows), uint(cols)}, hdf5.T_NATIVE_FLOAT)
	if err != nil {
		return err
	}
	defer embDS.Close()
	if err := embDS.Write(&flat); err != nil {
		return err
	}
	eig := make([]float32, len(eigenValues))
	for i, v := range eigenValues {
		eig[i] = float32(v)
	}
	if err := writeFloatArrayAttr(embDS, "eigenvalue", eig); err != nil {
		return err
	}

	cluGroup, err := group.CreateGroup("cluster")
	if err != nil {
		return err
	}
	defer cluGroup.Close()
	for name, assignment := range clusterings {
		if len(assignment) != rows {
			return fmt.Errorf("category %q clustering %q: %d assignments for %d rows", category, name, len(assignment), rows)
		}
		cluDS, err := createDataset(cluGroup, name, []uint{uint(rows)}, hdf5.T_NATIVE_INT32)
		if err != nil {
			return err
		}
		if err := cluDS.Write(&assignment); err != nil {
			cluDS.Close()
			return err
		}
		if err := writeStringAttr(cluDS, "embedding", SpectralEmbeddingName); err != nil {
			cluDS.Close()
			return err
		}
		axes := make([]int64, cols)
		for i := range axes {
			axes[i] = int64(i)
		}
		if err := writeIntArrayAttr(cluDS, "index", axes); err != nil {
			cluDS.Close()
			return err
		}
		cluDS.Close()
	}

	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

func createDataset(g *hdf5.Group, name string, dims []uint, dtype *hdf5.Datatype) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, err
	}
	defer space.Close()
	return g.CreateDataset(name, dtype, space)
}

func writeStringAttr(ds *hdf5.Dataset, name, value string) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer space.Close()
	attr, err := ds.CreateAttribute(name, hdf5.T_GO_STRING, space)
	if err != nil {
		return err
	}
	defer attr.Close()
	return attr.Write(&value, hdf5.T_GO_STRING)
}

func writeFloatArrayAttr(ds *hdf5.Dataset, name string, values []float32) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(values))}, nil)
	if err != nil {
		return err
	}
	defer space.Close()
	attr, err := ds.CreateAttribute(name, hdf5.T_NATIVE_FLOAT, space)
	if err != nil {
		return err
	}
	defer attr.Close()
	return attr.Write(&values, hdf5.T_NATIVE_FLOAT)
}

func writeIntArrayAttr(ds *hdf5.Dataset, name string, values []int64) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(values))}, nil)
	if err != nil {
		return err
	}
	defer space.Close()
	attr, err := ds.CreateAttribute(name, hdf5.T_NATIVE_INT64, space)
	if err != nil {
		return err
	}
	defer attr.Close()
	return attr.Write(&values, hdf5.T_NATIVE_INT64)
}
