package prediction

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Status classifies how a prediction request ended.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusInputError  Status = "input_error"
	StatusSystemError Status = "system_error"
)

// HTTPStatus maps an outcome status to its response code.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusInputError:
		return http.StatusBadRequest
	case StatusSystemError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Outcome is the result of a prediction request. Disease carries the display
// name of the disease on success, or an error category label otherwise.
type Outcome struct {
	Status  Status `json:"status"`
	Disease string `json:"disease"`
	Result  string `json:"result"`
}

func inputError(msg string) Outcome {
	return Outcome{Status: StatusInputError, Disease: "Input Error", Result: msg}
}

func systemError(msg string) Outcome {
	return Outcome{Status: StatusSystemError, Disease: "System Error", Result: msg}
}

func success(disease, verdict string) Outcome {
	return Outcome{Status: StatusSuccess, Disease: disease, Result: verdict}
}

// Record is a persisted prediction outcome.
type Record struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID *string   `json:"request_id,omitempty" db:"request_id"`
	Disease   string    `json:"disease" db:"disease"`
	Status    Status    `json:"status" db:"status"`
	Result    string    `json:"result" db:"result"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
