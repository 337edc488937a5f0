package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// treeNode is one node of a serialized decision tree. Nodes are stored as a
// flat array; children reference other entries by index.
type treeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// DecisionTree is a binary decision tree classifier deserialized from a JSON
// artifact produced by an external training process. It does not report an
// input width; the artifact does not carry one.
type DecisionTree struct {
	nodes []treeNode
}

// LoadDecisionTree reads a serialized tree from path.
func LoadDecisionTree(path string) (*DecisionTree, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree model: %w", err)
	}
	var nodes []treeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return nil, fmt.Errorf("parse tree model %s: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("tree model %s has no nodes", path)
	}
	return &DecisionTree{nodes: nodes}, nil
}

// Predict walks the tree from the root until it reaches a leaf. A well-formed
// tree visits each node at most once, so a walk longer than the node count
// means the artifact's child indices form a cycle.
func (t *DecisionTree) Predict(features []float64) (Label, error) {
	idx := 0
	for steps := 0; steps < len(t.nodes); steps++ {
		node := t.nodes[idx]
		if node.IsLeaf {
			return IntLabel(node.ClassLabel), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return Label{}, fmt.Errorf("feature index %d out of range for %d features", node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.nodes) {
			return Label{}, fmt.Errorf("invalid tree state: child index %d", idx)
		}
	}
	return Label{}, fmt.Errorf("no leaf reached after %d steps, tree has a cycle", len(t.nodes))
}
