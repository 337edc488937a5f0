package prediction

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/riskscreen/riskscreen/internal/platform/classifier"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID attaches the HTTP request id so stored records can be
// correlated with access logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return &id
	}
	return nil
}

// Service turns a raw form submission into a prediction outcome and logs the
// result to the history repository.
type Service struct {
	registry *classifier.Registry
	history  Repository
	logger   zerolog.Logger
}

func NewService(registry *classifier.Registry, history Repository, logger zerolog.Logger) *Service {
	return &Service{registry: registry, history: history, logger: logger}
}

// Predict validates the submission against the disease's field schema, builds
// the feature vector and invokes the classifier. It never returns an error;
// every failure mode is folded into the outcome, and a panicking classifier is
// reported as a system error.
func (s *Service) Predict(ctx context.Context, disease string, submission map[string]string) (out Outcome) {
	id := strings.ToLower(strings.TrimSpace(disease))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("disease", id).Interface("panic", r).Msg("prediction panicked")
			out = systemError(fmt.Sprintf("%v", r))
		}
		s.record(ctx, id, out)
	}()

	out = s.predict(id, submission)
	return out
}

func (s *Service) predict(disease string, submission map[string]string) Outcome {
	if disease == "" {
		return inputError("no disease selected")
	}

	fields := Fields(disease)
	clf, ok := s.registry.Get(disease)
	if fields == nil || !ok {
		return inputError(fmt.Sprintf("model not found for disease %q", disease))
	}

	features := make([]float64, 0, len(fields))
	var missing []string
	for _, field := range fields {
		raw, ok := lookup(submission, field.Name)
		if !ok || strings.TrimSpace(raw) == "" {
			missing = append(missing, field.Name)
			continue
		}
		raw = strings.TrimSpace(raw)

		if field.Categorical() {
			code, ok := field.Encoding[raw]
			if !ok {
				return inputError(fmt.Sprintf("invalid value %q for field %q", raw, field.Name))
			}
			features = append(features, float64(code))
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return inputError(fmt.Sprintf("field %q must be numeric, got %q", field.Name, raw))
		}
		features = append(features, v)
	}

	if len(missing) > 0 {
		return inputError("missing fields: " + strings.Join(missing, ", "))
	}
	if len(features) == 0 {
		return inputError("no input features found")
	}

	if w, ok := clf.(classifier.InputWidther); ok {
		if want := w.InputWidth(); want > 0 && len(features) != want {
			return inputError(fmt.Sprintf("feature count %d does not match model expectation %d", len(features), want))
		}
	}

	label, err := clf.Predict(features)
	if err != nil {
		s.logger.Error().Err(err).Str("disease", disease).Msg("classifier failed")
		return systemError(fmt.Sprintf("prediction failed for %q: %v", disease, err))
	}

	return success(DisplayName(disease), verdict(label))
}

// lookup finds the submitted value for a schema field. The exact field name
// wins; otherwise each submission key is normalized (trimmed, lower-cased,
// spaces to underscores) and compared against the field name as written. The
// field name itself is never normalized, so fields with capitals or spaces in
// their names only ever match an exact key. Candidate keys are scanned in
// sorted order so ambiguous submissions resolve the same way every time.
func lookup(submission map[string]string, field string) (string, bool) {
	if v, ok := submission[field]; ok {
		return v, true
	}

	keys := make([]string, 0, len(submission))
	for k := range submission {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if normalizeKey(k) == field {
			return submission[k], true
		}
	}
	return "", false
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_")
}

func verdict(label classifier.Label) string {
	if label.Integer {
		if label.Class == 1 {
			return "Positive: High Risk"
		}
		return "Negative: Low Risk"
	}
	return "Prediction: " + label.String()
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a disease id for humans, e.g. "heart_disease" becomes
// "Heart Disease".
func DisplayName(disease string) string {
	return titleCaser.String(strings.ReplaceAll(disease, "_", " "))
}

// record writes the outcome to the history repository. Persistence is best
// effort; a storage failure never fails the prediction itself.
func (s *Service) record(ctx context.Context, disease string, out Outcome) {
	if s.history == nil {
		return
	}
	rec := &Record{
		ID:        uuid.New(),
		RequestID: requestIDFrom(ctx),
		Disease:   disease,
		Status:    out.Status,
		Result:    out.Result,
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("disease", disease).Msg("failed to store prediction record")
	}
}

// History lists stored prediction records, optionally filtered by disease id.
func (s *Service) History(ctx context.Context, disease string, limit, offset int) ([]*Record, int, error) {
	if s.history == nil {
		return nil, 0, fmt.Errorf("prediction history is not enabled")
	}
	if disease != "" {
		return s.history.ListByDisease(ctx, disease, limit, offset)
	}
	return s.history.List(ctx, limit, offset)
}
