package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"betline/contracts"
	"betline/models"
)

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("Failed to encode response")
	}
}

// WriteError maps a domain error onto the boundary error envelope
func WriteError(w http.ResponseWriter, err error) {
	status, errorType := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("Request failed")
		// Internals never reach the wire
		message = "an unexpected error occurred"
	}

	WriteJSON(w, status, contracts.ErrorResponse{
		Error: contracts.ErrorDetail{
			StatusCode: status,
			Message:    message,
			ErrorType:  errorType,
		},
	})
}

func classify(err error) (int, string) {
	var (
		notFound    *models.NotFoundError
		exists      *models.AlreadyExistsError
		transition  *models.InvalidTransitionError
		notOpen     *models.EventNotOpenError
		deadline    *models.DeadlinePassedError
		amount      *models.InvalidAmountError
		badDeadline *models.InvalidDeadlineError
		mismatch    *models.IDMismatchError
		validation  *models.ValidationError
		conflict    *models.ConflictError
		timeout     *models.StorageTimeoutError
		remote      *models.RemoteUnavailableError
	)

	switch {
	case errors.As(err, &notFound):
		if notFound.Kind == "bet" {
			return http.StatusNotFound, "BetNotFound"
		}
		return http.StatusNotFound, "EventNotFound"
	case errors.As(err, &exists):
		return http.StatusConflict, "EventAlreadyExists"
	case errors.As(err, &transition):
		return http.StatusBadRequest, "InvalidTransition"
	case errors.As(err, &notOpen):
		return http.StatusBadRequest, "EventNotOpen"
	case errors.As(err, &deadline):
		return http.StatusBadRequest, "DeadlinePassed"
	case errors.As(err, &amount):
		return http.StatusBadRequest, "InvalidAmount"
	case errors.As(err, &badDeadline):
		return http.StatusBadRequest, "InvalidEventDeadline"
	case errors.As(err, &mismatch):
		return http.StatusBadRequest, "IdMismatch"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "RequestValidationError"
	case errors.As(err, &conflict):
		return http.StatusConflict, "Conflict"
	case errors.As(err, &timeout):
		return http.StatusServiceUnavailable, "StorageTimeout"
	case errors.As(err, &remote):
		return http.StatusServiceUnavailable, "RemoteUnavailable"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}
