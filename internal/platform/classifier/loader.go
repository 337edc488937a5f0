package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModelInfo describes one loaded model artifact for diagnostics and the
// models CLI subcommand.
type ModelInfo struct {
	Disease string `json:"disease"`
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Width   int    `json:"width,omitempty"`
}

// artifact suffixes recognized by the loader. The file stem before the
// suffix is the disease id (e.g. "heart_disease.tree.json").
const (
	suffixTree   = ".tree.json"
	suffixLinear = ".linear.json"
	suffixONNX   = ".onnx"
)

// Load scans dir for model artifacts and builds the classifier registry.
// Files without a recognized suffix are ignored. A disease id appearing in
// more than one artifact is an error; the schema contract allows exactly one
// trained model per disease.
func Load(dir, onnxLibPath string) (*Registry, []ModelInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read model directory %s: %w", dir, err)
	}

	classifiers := make(map[string]Classifier)
	var infos []ModelInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		var (
			disease string
			kind    string
			clf     Classifier
		)
		switch {
		case strings.HasSuffix(name, suffixTree):
			disease = strings.TrimSuffix(name, suffixTree)
			kind = "tree"
			clf, err = LoadDecisionTree(path)
		case strings.HasSuffix(name, suffixLinear):
			disease = strings.TrimSuffix(name, suffixLinear)
			kind = "linear"
			clf, err = LoadLinearModel(path)
		case strings.HasSuffix(name, suffixONNX):
			disease = strings.TrimSuffix(name, suffixONNX)
			kind = "onnx"
			clf, err = LoadONNXModel(path, onnxLibPath)
		default:
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load model %s: %w", name, err)
		}

		disease = strings.ToLower(strings.TrimSpace(disease))
		if disease == "" {
			return nil, nil, fmt.Errorf("model file %s has an empty disease id", name)
		}
		if _, dup := classifiers[disease]; dup {
			return nil, nil, fmt.Errorf("duplicate model for disease %q (%s)", disease, name)
		}
		classifiers[disease] = clf

		info := ModelInfo{Disease: disease, Kind: kind, File: name}
		if w, ok := clf.(InputWidther); ok {
			info.Width = w.InputWidth()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Disease < infos[j].Disease })
	return NewRegistry(classifiers), infos, nil
}
