package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Label maps an output neuron index to a human-readable name. The WordNet ID
// is only present for datasets that use synsets (e.g. ImageNet).
type Label struct {
	Index     int    `json:"index"`
	WordNetID string `json:"word_net_id"`
	Name      string `json:"name"`
}

// LabelMap resolves label references (index, WordNet ID, or n-hot vector)
// from the datasets and databases to human-readable names.
type LabelMap struct {
	labels []Label
}

// LoadLabelMap reads a label map JSON file.
func LoadLabelMap(path string) (*LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var labels []Label
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse label map %s: %w", path, err)
	}
	return &LabelMap{labels: labels}, nil
}

// NewLabelMap builds a label map from in-memory labels.
func NewLabelMap(labels []Label) *LabelMap {
	return &LabelMap{labels: labels}
}

// Labels returns all labels in declaration order.
func (m *LabelMap) Labels() []Label { return m.labels }

// NameByIndex resolves a single label index.
func (m *LabelMap) NameByIndex(index int) (string, error) {
	for _, l := range m.labels {
		if l.Index == index {
			return l.Name, nil
		}
	}
	return "", fmt.Errorf("label index %d: %w", index, ErrNotFound)
}

// NameByWordNetID resolves a WordNet ID.
func (m *LabelMap) NameByWordNetID(id string) (string, error) {
	for _, l := range m.labels {
		if l.WordNetID == id {
			return l.Name, nil
		}
	}
	return "", fmt.Errorf("label %q: %w", id, ErrNotFound)
}

// NamesByNHot resolves a multi-label n-hot vector to all set label names.
func (m *LabelMap) NamesByNHot(hot []bool) ([]string, error) {
	var names []string
	for i, set := range hot {
		if !set {
			continue
		}
		name, err := m.NameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// NameByReference resolves a free-form category name, which may be a WordNet
// ID or a stringified label index.
func (m *LabelMap) NameByReference(ref string) (string, error) {
	if name, err := m.NameByWordNetID(ref); err == nil {
		return name, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		return m.NameByIndex(idx)
	}
	return "", fmt.Errorf("label reference %q: %w", ref, ErrNotFound)
}
