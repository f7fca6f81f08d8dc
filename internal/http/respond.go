package httpserver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Clark-Hu/thrive/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and runs struct validation,
// writing the error response itself. It reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		s.respondDecodeError(w, err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		s.respondValidation(w, err)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondValidation(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: verr.Error(),
			Details: verr.Fields,
		})
		return
	}
	s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func (s *Server) respondNotFound(w http.ResponseWriter) {
	s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

func (s *Server) respondInternal(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.requestLogger(r).Error().Err(err).Msg(message)
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// queryInt parses an optional integer query parameter.
func queryInt(q url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func roundTo(value float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(value*p) / p
}
