package hdf5

import (
	"fmt"
	"strconv"

	"gonum.org/v1/hdf5"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// labelIndex holds the fully loaded label dataset of an input or attribution
// database. Rank-1 datasets are single-label (one index per sample), rank-2
// datasets are multi-label (one n-hot row per sample).
type labelIndex struct {
	multi     bool
	single    []int64
	hot       []uint8
	labelsPer int
}

func loadLabels(ds *hdf5.Dataset) (*labelIndex, error) {
	shape, err := dims(ds)
	if err != nil {
		return nil, err
	}
	switch len(shape) {
	case 1:
		buf := make([]int64, shape[0])
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return &labelIndex{single: buf}, nil
	case 2:
		buf := make([]uint8, shape[0]*shape[1])
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return &labelIndex{multi: true, hot: buf, labelsPer: shape[1]}, nil
	default:
		return nil, fmt.Errorf("label dataset has rank %d, want 1 or 2", len(shape))
	}
}

func (li *labelIndex) len() int {
	if li.multi {
		if li.labelsPer == 0 {
			return 0
		}
		return len(li.hot) / li.labelsPer
	}
	return len(li.single)
}

// resolve returns the raw label reference and human-readable names of the
// sample at pos.
func (li *labelIndex) resolve(pos int, lm *workspace.LabelMap) (ref string, names []string, err error) {
	if li.multi {
		hot := make([]bool, li.labelsPer)
		first := -1
		for i := range hot {
			if li.hot[pos*li.labelsPer+i] != 0 {
				hot[i] = true
				if first < 0 {
					first = i
				}
			}
		}
		names, err = lm.NamesByNHot(hot)
		if err != nil {
			return "", nil, err
		}
		if first >= 0 {
			ref = labelRef(first, lm)
		}
		return ref, names, nil
	}

	idx := int(li.single[pos])
	name, err := lm.NameByIndex(idx)
	if err != nil {
		return "", nil, err
	}
	return labelRef(idx, lm), []string{name}, nil
}

// labelRef prefers the WordNet ID as the stable reference of a label and
// falls back to the stringified index.
func labelRef(index int, lm *workspace.LabelMap) string {
	for _, l := range lm.Labels() {
		if l.Index == index && l.WordNetID != "" {
			return l.WordNetID
		}
	}
	return strconv.Itoa(index)
}
