package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// linearModelFile is the on-disk form of a logistic regression artifact:
// one weight per input feature plus an intercept. Classes, when present,
// name the textual label for each class index.
type linearModelFile struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Threshold float64   `json:"threshold"`
	Classes   []string  `json:"classes"`
}

// LinearModel is a binary logistic regression classifier. Unlike the tree
// backend it knows its trained input width.
type LinearModel struct {
	weights   []float64
	intercept float64
	threshold float64
	classes   []string
}

// LoadLinearModel reads a serialized logistic regression model from path.
func LoadLinearModel(path string) (*LinearModel, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read linear model: %w", err)
	}
	var file linearModelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse linear model %s: %w", path, err)
	}
	if len(file.Weights) == 0 {
		return nil, fmt.Errorf("linear model %s has no weights", path)
	}
	if n := len(file.Classes); n != 0 && n != 2 {
		return nil, fmt.Errorf("linear model %s names %d classes, want 2 or none", path, n)
	}
	if file.Threshold <= 0 || file.Threshold >= 1 {
		file.Threshold = 0.5
	}
	return &LinearModel{
		weights:   file.Weights,
		intercept: file.Intercept,
		threshold: file.Threshold,
		classes:   file.Classes,
	}, nil
}

// InputWidth returns the number of features the model was trained on.
func (m *LinearModel) InputWidth() int {
	return len(m.weights)
}

// Predict applies the logistic function to the weighted feature sum and
// thresholds the probability into class 0 or 1.
func (m *LinearModel) Predict(features []float64) (Label, error) {
	if len(features) != len(m.weights) {
		return Label{}, fmt.Errorf("expected %d features, got %d", len(m.weights), len(features))
	}
	z := m.intercept
	for i, w := range m.weights {
		z += w * features[i]
	}
	p := 1.0 / (1.0 + math.Exp(-z))

	class := 0
	if p >= m.threshold {
		class = 1
	}
	if len(m.classes) != 0 {
		return TextLabel(m.classes[class]), nil
	}
	return IntLabel(class), nil
}
