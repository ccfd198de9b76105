package httpapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"betline/models"
)

// Listing bounds shared by both services
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// PathID parses an int64 path value, naming the parameter on failure
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%q is not a valid integer id", raw),
		}
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, enforcing its bounds
func QueryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%q is not a valid integer", raw),
		}
	}
	if v < min || v > max {
		return 0, &models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return v, nil
}

// Pagination parses the limit and offset query parameters for listings
func Pagination(r *http.Request) (limit, offset int, err error) {
	limit, err = QueryInt(r, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = QueryInt(r, "offset", 0, 0, math.MaxInt32)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// QueryBetStatus parses an optional bet status filter
func QueryBetStatus(r *http.Request, name string) (*models.BetStatus, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	status := models.BetStatus(raw)
	if !status.IsValid() {
		return nil, &models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("unknown bet status %q", raw),
		}
	}
	return &status, nil
}

// DecodeJSON decodes a request body, rejecting malformed payloads
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("invalid request body: %v", err),
		}
	}
	return nil
}
