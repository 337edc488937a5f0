package prediction

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/riskscreen/riskscreen/internal/platform/classifier"
)

type stubModel struct {
	label classifier.Label
	err   error
	calls int
	got   []float64
}

func (s *stubModel) Predict(features []float64) (classifier.Label, error) {
	s.calls++
	s.got = features
	return s.label, s.err
}

type widthModel struct {
	stubModel
	width int
}

func (s *widthModel) InputWidth() int { return s.width }

type panicModel struct{}

func (panicModel) Predict([]float64) (classifier.Label, error) { panic("bad model state") }

func newTestService(models map[string]classifier.Classifier, history Repository) *Service {
	return NewService(classifier.NewRegistry(models), history, zerolog.Nop())
}

func diabetesSubmission() map[string]string {
	return map[string]string{
		"pregnancies":      "2",
		"glucose":          "120",
		"bloodpressure":    "70",
		"skinthickness":    "20",
		"insulin":          "80",
		"bmi":              "25.5",
		"diabetespedigree": "0.5",
		"age":              "31",
	}
}

func TestPredict_NoDiseaseSelected(t *testing.T) {
	svc := newTestService(nil, nil)
	out := svc.Predict(context.Background(), "   ", nil)
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	if out.Result != "no disease selected" {
		t.Errorf("unexpected result %q", out.Result)
	}
	if out.Disease != "Input Error" {
		t.Errorf("unexpected disease label %q", out.Disease)
	}
}

func TestPredict_UnknownDisease(t *testing.T) {
	svc := newTestService(map[string]classifier.Classifier{"diabetes": &stubModel{}}, nil)
	out := svc.Predict(context.Background(), "flu", diabetesSubmission())
	if out.Status != StatusInputError {
		t.Fatalf("expected input error for unknown disease, got %s", out.Status)
	}
	if out.Result != `model not found for disease "flu"` {
		t.Errorf("unexpected result %q", out.Result)
	}
}

func TestPredict_DiseaseNameNormalized(t *testing.T) {
	model := &stubModel{label: classifier.IntLabel(0)}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)
	out := svc.Predict(context.Background(), "  Diabetes ", diabetesSubmission())
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", out.Status, out.Result)
	}
	if model.calls != 1 {
		t.Errorf("expected classifier to run once, ran %d times", model.calls)
	}
}

func TestPredict_Verdicts(t *testing.T) {
	cases := []struct {
		name  string
		label classifier.Label
		want  string
	}{
		{name: "positive", label: classifier.IntLabel(1), want: "Positive: High Risk"},
		{name: "negative", label: classifier.IntLabel(0), want: "Negative: Low Risk"},
		{name: "nonpositive", label: classifier.IntLabel(3), want: "Negative: Low Risk"},
		{name: "textual", label: classifier.TextLabel("malignant"), want: "Prediction: malignant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(map[string]classifier.Classifier{"diabetes": &stubModel{label: tc.label}}, nil)
			out := svc.Predict(context.Background(), "diabetes", diabetesSubmission())
			if out.Status != StatusSuccess {
				t.Fatalf("expected success, got %s: %s", out.Status, out.Result)
			}
			if out.Result != tc.want {
				t.Errorf("got %q, want %q", out.Result, tc.want)
			}
			if out.Disease != "Diabetes" {
				t.Errorf("expected display name Diabetes, got %q", out.Disease)
			}
		})
	}
}

func TestPredict_MissingFieldsAggregated(t *testing.T) {
	model := &stubModel{}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	sub := diabetesSubmission()
	delete(sub, "glucose")
	delete(sub, "insulin")
	delete(sub, "age")

	out := svc.Predict(context.Background(), "diabetes", sub)
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	// Missing fields are reported together, in schema order.
	if out.Result != "missing fields: glucose, insulin, age" {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run on incomplete input")
	}
}

func TestPredict_BlankValueIsMissing(t *testing.T) {
	model := &stubModel{}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	sub := diabetesSubmission()
	sub["glucose"] = "   "
	sub["age"] = ""

	out := svc.Predict(context.Background(), "diabetes", sub)
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	if out.Result != "missing fields: glucose, age" {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run on incomplete input")
	}
}

func TestPredict_FuzzyKeyMatch(t *testing.T) {
	model := &stubModel{label: classifier.IntLabel(0)}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	sub := diabetesSubmission()
	delete(sub, "glucose")
	sub["Glucose "] = "120"

	out := svc.Predict(context.Background(), "diabetes", sub)
	if out.Status != StatusSuccess {
		t.Fatalf("expected fuzzy key to match, got %s: %s", out.Status, out.Result)
	}
	if len(model.got) != 8 || model.got[1] != 120 {
		t.Errorf("unexpected feature vector %v", model.got)
	}
}

func TestPredict_SpacedFieldNames(t *testing.T) {
	model := &stubModel{label: classifier.IntLabel(1)}
	svc := newTestService(map[string]classifier.Classifier{"stroke": model}, nil)

	sub := make(map[string]string)
	for _, f := range Fields("stroke") {
		sub[f.Name] = "1"
	}

	out := svc.Predict(context.Background(), "stroke", sub)
	if out.Status != StatusSuccess {
		t.Fatalf("expected exact spaced keys to match, got %s: %s", out.Status, out.Result)
	}
	if len(model.got) != 17 {
		t.Errorf("expected 17 features, got %d", len(model.got))
	}
}

func TestPredict_FuzzyMatchComparesAgainstLiteralFieldName(t *testing.T) {
	// Normalization applies to submission keys only. A field whose schema
	// name carries spaces or capitals never matches a normalized key, so an
	// underscored submission leaves every such field missing.
	model := &stubModel{}
	svc := newTestService(map[string]classifier.Classifier{"stroke": model}, nil)

	sub := make(map[string]string)
	for _, f := range Fields("stroke") {
		sub[normalizeKey(f.Name)] = "1"
	}

	out := svc.Predict(context.Background(), "stroke", sub)
	if out.Status != StatusInputError {
		t.Fatalf("expected underscore keys to miss spaced field names, got %s: %s", out.Status, out.Result)
	}
	if out.Result != "missing fields: "+strings.Join(fieldNames("stroke"), ", ") {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run on incomplete input")
	}
}

func fieldNames(disease string) []string {
	fields := Fields(disease)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestPredict_NonNumericValue(t *testing.T) {
	model := &stubModel{}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	sub := diabetesSubmission()
	sub["bmi"] = "heavy"

	out := svc.Predict(context.Background(), "diabetes", sub)
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	if out.Result != `field "bmi" must be numeric, got "heavy"` {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run on malformed input")
	}
}

func breastCancerSubmission() map[string]string {
	return map[string]string{
		"age":                    "50",
		"race":                   "White",
		"marital_status":         "Married",
		"t_stage":                "T2",
		"n_stage":                "N1",
		"sixth_stage":            "IIA",
		"differentiate":          "Poorly differentiated",
		"grade":                  "3",
		"a_stage":                "Regional",
		"tumor_size":             "25",
		"estrogen_status":        "Positive",
		"progesterone_status":    "Negative",
		"regional_node_examined": "14",
		"reginol_node_positive":  "1",
		"survival_months":        "60",
	}
}

func TestPredict_CategoricalEncoding(t *testing.T) {
	model := &stubModel{label: classifier.IntLabel(0)}
	svc := newTestService(map[string]classifier.Classifier{"breast_cancer": model}, nil)

	out := svc.Predict(context.Background(), "breast_cancer", breastCancerSubmission())
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", out.Status, out.Result)
	}

	want := []float64{50, 2, 1, 1, 0, 0, 1, 2, 1, 25, 1, 0, 14, 1, 60}
	if len(model.got) != len(want) {
		t.Fatalf("expected %d features, got %d", len(want), len(model.got))
	}
	for i := range want {
		if model.got[i] != want[i] {
			t.Errorf("feature %d: got %v, want %v", i, model.got[i], want[i])
		}
	}
}

func TestPredict_CategoricalValueTrimmed(t *testing.T) {
	model := &stubModel{label: classifier.IntLabel(0)}
	svc := newTestService(map[string]classifier.Classifier{"breast_cancer": model}, nil)

	sub := breastCancerSubmission()
	sub["race"] = " White "

	out := svc.Predict(context.Background(), "breast_cancer", sub)
	if out.Status != StatusSuccess {
		t.Fatalf("expected padded categorical value to match, got %s: %s", out.Status, out.Result)
	}
	if model.got[1] != 2 {
		t.Errorf("expected race code 2, got %v", model.got[1])
	}
}

func TestPredict_InvalidCategoricalValue(t *testing.T) {
	model := &stubModel{}
	svc := newTestService(map[string]classifier.Classifier{"breast_cancer": model}, nil)

	sub := breastCancerSubmission()
	sub["race"] = "Martian"

	out := svc.Predict(context.Background(), "breast_cancer", sub)
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	if out.Result != `invalid value "Martian" for field "race"` {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run on malformed input")
	}
}

func TestPredict_WidthMismatch(t *testing.T) {
	model := &widthModel{width: 99}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	out := svc.Predict(context.Background(), "diabetes", diabetesSubmission())
	if out.Status != StatusInputError {
		t.Fatalf("expected input error, got %s", out.Status)
	}
	if out.Result != "feature count 8 does not match model expectation 99" {
		t.Errorf("unexpected result %q", out.Result)
	}
	if model.calls != 0 {
		t.Error("classifier must not run when the schema disagrees with the model")
	}
}

func TestPredict_ClassifierError(t *testing.T) {
	model := &stubModel{err: context.DeadlineExceeded}
	svc := newTestService(map[string]classifier.Classifier{"diabetes": model}, nil)

	out := svc.Predict(context.Background(), "diabetes", diabetesSubmission())
	if out.Status != StatusSystemError {
		t.Fatalf("expected system error, got %s", out.Status)
	}
	if out.Disease != "System Error" {
		t.Errorf("unexpected disease label %q", out.Disease)
	}
	if out.Result != `prediction failed for "diabetes": context deadline exceeded` {
		t.Errorf("unexpected result %q", out.Result)
	}
}

func TestPredict_ClassifierPanic(t *testing.T) {
	svc := newTestService(map[string]classifier.Classifier{"diabetes": panicModel{}}, nil)

	out := svc.Predict(context.Background(), "diabetes", diabetesSubmission())
	if out.Status != StatusSystemError {
		t.Fatalf("expected panic to surface as system error, got %s", out.Status)
	}
	if out.Result != "bad model state" {
		t.Errorf("unexpected result %q", out.Result)
	}
}

func TestPredict_RecordsHistory(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(map[string]classifier.Classifier{"diabetes": &stubModel{label: classifier.IntLabel(1)}}, repo)

	ctx := WithRequestID(context.Background(), "req-123")
	svc.Predict(ctx, "diabetes", diabetesSubmission())
	svc.Predict(ctx, "flu", nil)

	records, total, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 records, got %d", total)
	}
	// newest first
	if records[0].Disease != "flu" || records[0].Status != StatusInputError {
		t.Errorf("unexpected first record %+v", records[0])
	}
	if records[1].Disease != "diabetes" || records[1].Status != StatusSuccess {
		t.Errorf("unexpected second record %+v", records[1])
	}
	if records[1].RequestID == nil || *records[1].RequestID != "req-123" {
		t.Errorf("expected request id on record, got %v", records[1].RequestID)
	}
}

func TestHistory_Disabled(t *testing.T) {
	svc := newTestService(nil, nil)
	if _, _, err := svc.History(context.Background(), "", 10, 0); err == nil {
		t.Error("expected error when history is disabled")
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"diabetes":      "Diabetes",
		"heart_disease": "Heart Disease",
		"breast_cancer": "Breast Cancer",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
