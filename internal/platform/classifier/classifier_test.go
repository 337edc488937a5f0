package classifier

import "testing"

type stubClassifier struct{ label Label }

func (s stubClassifier) Predict(_ []float64) (Label, error) { return s.label, nil }

func TestLabel_String(t *testing.T) {
	if got := IntLabel(1).String(); got != "1" {
		t.Errorf("expected \"1\", got %q", got)
	}
	if got := TextLabel("malignant").String(); got != "malignant" {
		t.Errorf("expected \"malignant\", got %q", got)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(map[string]Classifier{
		"diabetes": stubClassifier{label: IntLabel(1)},
	})

	if _, ok := r.Get("diabetes"); !ok {
		t.Error("expected diabetes classifier to be registered")
	}
	if _, ok := r.Get("flu"); ok {
		t.Error("expected flu to be unregistered")
	}
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := NewRegistry(map[string]Classifier{
		"stroke":   stubClassifier{},
		"diabetes": stubClassifier{},
	})

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "diabetes" || ids[1] != "stroke" {
		t.Errorf("expected sorted ids [diabetes stroke], got %v", ids)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 classifiers, got %d", r.Len())
	}
}

func TestRegistry_CopiesInput(t *testing.T) {
	src := map[string]Classifier{"diabetes": stubClassifier{}}
	r := NewRegistry(src)
	delete(src, "diabetes")

	if _, ok := r.Get("diabetes"); !ok {
		t.Error("registry should not share the caller's map")
	}
}
