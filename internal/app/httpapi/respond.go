package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// parseDecimal parses a money amount from its string form.
func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}

// errorEnvelope is the fixed JSON shape of every error response.
type errorEnvelope struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Invalid("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to the error envelope. Application errors carry their
// own status and message; anything else becomes a 500 with a generic
// message, with the detail logged but not exposed.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	message := "an unexpected error occurred"

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		status = appErr.Status
		code = appErr.Code
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError && log != nil {
		log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}

	writeJSON(w, status, errorEnvelope{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     code,
		Message:   message,
		Path:      r.URL.Path,
	})
}
