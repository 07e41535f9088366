// Package hdf5 implements the workspace data ports over HDF5 databases:
// input databases (data/label/index), attribution databases
// (attribution/label/prediction/index) and analysis databases (one group per
// category with embedding and cluster subgroups).
package hdf5

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

// dims returns the shape of a dataset as ints.
func dims(ds *hdf5.Dataset) ([]int, error) {
	space := ds.Space()
	defer space.Close()
	extent, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(extent))
	for i, d := range extent {
		shape[i] = int(d)
	}
	return shape, nil
}

// readRow reads row index of an n-dimensional dataset into a flat float32
// slice via a hyperslab selection, so single-sample access never loads the
// whole tensor.
func readRow(ds *hdf5.Dataset, shape []int, index int) ([]float32, error) {
	if index < 0 || index >= shape[0] {
		return nil, fmt.Errorf("row %d out of range [0, %d)", index, shape[0])
	}
	offset := make([]uint, len(shape))
	count := make([]uint, len(shape))
	offset[0] = uint(index)
	count[0] = 1
	elems := 1
	for i := 1; i < len(shape); i++ {
		count[i] = uint(shape[i])
		elems *= shape[i]
	}

	filespace := ds.Space()
	defer filespace.Close()
	if err := filespace.SelectHyperslab(offset, nil, count, nil); err != nil {
		return nil, err
	}
	memspace, err := hdf5.CreateSimpleDataspace([]uint{uint(elems)}, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()

	buf := make([]float32, elems)
	if err := ds.ReadSubset(&buf, memspace, filespace); err != nil {
		return nil, err
	}
	return buf, nil
}

// readInts reads a full rank-1 dataset as int64, letting the library convert
// from whatever integer width the file uses.
func readInts(ds *hdf5.Dataset) ([]int64, error) {
	shape, err := dims(ds)
	if err != nil {
		return nil, err
	}
	buf := make([]int64, shape[0])
	if err := ds.Read(&buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readFloats reads a full dataset as a flat float32 slice.
func readFloats(ds *hdf5.Dataset) ([]float32, []int, error) {
	shape, err := dims(ds)
	if err != nil {
		return nil, nil, err
	}
	elems := 1
	for _, d := range shape {
		elems *= d
	}
	buf := make([]float32, elems)
	if err := ds.Read(&buf); err != nil {
		return nil, nil, err
	}
	return buf, shape, nil
}

// stringAttr reads a string attribute of a dataset; ok is false when the
// attribute does not exist.
func stringAttr(ds *hdf5.Dataset, name string) (string, bool) {
	attr, err := ds.OpenAttribute(name)
	if err != nil {
		return "", false
	}
	defer attr.Close()
	var value string
	if err := attr.Read(&value, hdf5.T_GO_STRING); err != nil {
		return "", false
	}
	return value, true
}

// floatArrayAttr reads a float array attribute of a dataset.
func floatArrayAttr(ds *hdf5.Dataset, name string) ([]float32, bool) {
	attr, err := ds.OpenAttribute(name)
	if err != nil {
		return nil, false
	}
	defer attr.Close()
	space := attr.Space()
	extent, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil || len(extent) == 0 {
		return nil, false
	}
	buf := make([]float32, extent[0])
	if err := attr.Read(&buf, hdf5.T_NATIVE_FLOAT); err != nil {
		return nil, false
	}
	return buf, true
}

// intArrayAttr reads an integer array attribute of a dataset.
func intArrayAttr(ds *hdf5.Dataset, name string) ([]int, bool) {
	attr, err := ds.OpenAttribute(name)
	if err != nil {
		return nil, false
	}
	defer attr.Close()
	space := attr.Space()
	extent, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil || len(extent) == 0 {
		return nil, false
	}
	buf := make([]int64, extent[0])
	if err := attr.Read(&buf, hdf5.T_NATIVE_INT64); err != nil {
		return nil, false
	}
	out := make([]int, len(buf))
	for i, v := range buf {
		out[i] = int(v)
	}
	return out, true
}

// groupNames lists the child object names of a group.
func groupNames(g *hdf5.Group) ([]string, error) {
	n, err := g.NumObjects()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
