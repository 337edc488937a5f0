// Package classifier provides the runtime model registry for the prediction
// API. Classifiers are loaded once at process start from serialized artifacts
// and are treated as immutable, read-only resources afterwards.
package classifier

import (
	"sort"
	"strconv"
)

// Label is the output of a single classifier run. Binary risk models emit an
// integer class; other models may emit a free-form textual label.
type Label struct {
	Class   int
	Text    string
	Integer bool
}

// IntLabel builds an integer-class label.
func IntLabel(class int) Label {
	return Label{Class: class, Integer: true}
}

// TextLabel builds a textual label.
func TextLabel(text string) Label {
	return Label{Text: text}
}

func (l Label) String() string {
	if l.Integer {
		return strconv.Itoa(l.Class)
	}
	return l.Text
}

// Classifier scores a feature vector, assembled in the trained field order,
// and returns a label. Implementations must be safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (Label, error)
}

// InputWidther is implemented by classifiers that know the input width they
// were trained on. Callers probe for it with a type assertion and skip width
// validation when the classifier does not report one.
type InputWidther interface {
	InputWidth() int
}

// Registry is an immutable lookup from disease id to its classifier. It is
// built once during startup and handed to the prediction service explicitly,
// so tests can substitute stub classifiers without touching global state.
type Registry struct {
	classifiers map[string]Classifier
}

// NewRegistry copies the given map into a new registry.
func NewRegistry(classifiers map[string]Classifier) *Registry {
	m := make(map[string]Classifier, len(classifiers))
	for id, c := range classifiers {
		m[id] = c
	}
	return &Registry{classifiers: m}
}

// Get returns the classifier registered for the given disease id.
func (r *Registry) Get(id string) (Classifier, bool) {
	c, ok := r.classifiers[id]
	return c, ok
}

// IDs returns the registered disease ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.classifiers))
	for id := range r.classifiers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered classifiers.
func (r *Registry) Len() int {
	return len(r.classifiers)
}
