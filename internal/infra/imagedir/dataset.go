// Package imagedir implements the dataset port over a directory tree of
// image files, with the sample label parsed out of each file path.
package imagedir

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// Dataset serves samples from image files under a root directory. Sample
// indices follow the lexicographic order of the file paths. Labels are
// extracted from the path with either an index regex or a WordNet ID regex,
// each with one capture group.
type Dataset struct {
	mu        sync.Mutex
	name      string
	paths     []string
	lm        *workspace.LabelMap
	indexRe   *regexp.Regexp
	wordNetRe *regexp.Regexp
	resampler *Resampler
	closed    bool
}

var _ workspace.Dataset = (*Dataset)(nil)

// Options configure how a directory of images is turned into a dataset.
type Options struct {
	LabelIndexRegex     string
	LabelWordNetIDRegex string
	InputWidth          int
	InputHeight         int
	UpSamplingMethod    string
	DownSamplingMethod  string
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Open walks the directory tree under path and builds the sample index.
func Open(name, path string, lm *workspace.LabelMap, opts Options) (*Dataset, error) {
	d := &Dataset{name: name, lm: lm}

	var err error
	if opts.LabelIndexRegex != "" {
		if d.indexRe, err = regexp.Compile(opts.LabelIndexRegex); err != nil {
			return nil, fmt.Errorf("label index regex: %w", err)
		}
	}
	if opts.LabelWordNetIDRegex != "" {
		if d.wordNetRe, err = regexp.Compile(opts.LabelWordNetIDRegex); err != nil {
			return nil, fmt.Errorf("label WordNet ID regex: %w", err)
		}
	}
	if d.indexRe == nil && d.wordNetRe == nil {
		return nil, fmt.Errorf("image directory %s: no label regex configured", path)
	}

	d.resampler, err = NewResampler(opts.InputWidth, opts.InputHeight, opts.UpSamplingMethod, opts.DownSamplingMethod)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(p))] {
			d.paths = append(d.paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk image directory %s: %w", path, err)
	}
	if len(d.paths) == 0 {
		return nil, fmt.Errorf("image directory %s: no images found", path)
	}
	sort.Strings(d.paths)

	return d, nil
}

func (d *Dataset) Name() string { return d.name }

func (d *Dataset) Len() int { return len(d.paths) }

// Sample decodes the image at index, resamples it to the configured input
// size and resolves its label from the file path.
func (d *Dataset) Sample(index int) (*workspace.Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, workspace.ErrClosed
	}
	if index < 0 || index >= len(d.paths) {
		return nil, fmt.Errorf("sample %d: %w", index, workspace.ErrNotFound)
	}

	path := d.paths[index]
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	img = d.resampler.Resample(img)

	name, err := d.labelName(path)
	if err != nil {
		return nil, err
	}

	return &workspace.Sample{
		Index:  index,
		Labels: []string{name},
		Data:   tensorFromImage(img),
	}, nil
}

func (d *Dataset) labelName(path string) (string, error) {
	if d.wordNetRe != nil {
		if m := d.wordNetRe.FindStringSubmatch(path); len(m) > 1 {
			return d.lm.NameByWordNetID(m[1])
		}
	}
	if d.indexRe != nil {
		if m := d.indexRe.FindStringSubmatch(path); len(m) > 1 {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				return "", fmt.Errorf("label index %q in %s: %w", m[1], path, err)
			}
			return d.lm.NameByIndex(idx)
		}
	}
	return "", fmt.Errorf("no label found in path %s", path)
}

func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// tensorFromImage converts an image to an HWC tensor with values in
// [0, 255].
func tensorFromImage(img image.Image) workspace.Tensor {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	data := make([]float32, 0, h*w*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data = append(data, float32(r>>8), float32(g>>8), float32(b>>8))
		}
	}
	return workspace.NewTensor(data, []int{h, w, 3})
}
