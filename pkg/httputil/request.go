package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// KindInvalidInput is the ErrorResponse kind written for malformed requests.
// It is the same kind the membership service uses for invalid arguments.
const KindInvalidInput = "InvalidInput"

// MaxBodyBytes bounds the request bodies read by DecodeBody
const MaxBodyBytes int64 = 1 << 20

// RequestError is a request the handler could not make sense of
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Decode reads exactly one JSON document from the request body into dest.
// Unknown fields are rejected.
func Decode(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return invalid("request body is required")
		case errors.As(err, &tooLarge):
			return &RequestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}
		case errors.As(err, &syntaxErr):
			return invalid("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return invalid("field %q must be a %s", typeErr.Field, typeErr.Type)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return invalid("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return invalid("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return invalid("request body must hold a single JSON document")
	}
	return nil
}

// DecodeBody decodes the request body into dest, capped at MaxBodyBytes.
// On failure the InvalidInput response has been written and false is returned.
func DecodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := Decode(r, dest); err != nil {
		WriteRequestError(w, err)
		return false
	}
	return true
}

// WriteRequestError writes err with kind InvalidInput. A *RequestError keeps
// its status; anything else is a 400.
func WriteRequestError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var rerr *RequestError
	if errors.As(err, &rerr) {
		status = rerr.Status
	}
	WriteErrorResponse(w, status, ErrorResponse{Error: err.Error(), Kind: KindInvalidInput})
}

// PathVar returns the route variable key. A blank value writes an
// InvalidInput response and returns false.
func PathVar(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val := strings.TrimSpace(mux.Vars(r)[key])
	if val == "" {
		WriteRequestError(w, invalid("missing path parameter %s", key))
		return "", false
	}
	return val, true
}

// Required writes an InvalidInput response naming field when value is blank
func Required(w http.ResponseWriter, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		WriteRequestError(w, invalid("%s is required", field))
		return false
	}
	return true
}

// QueryInt reads an integer query parameter. Missing, malformed or values
// below min yield def; values above max are capped.
func QueryInt(r *http.Request, key string, def, min, max int) int {
	val, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || val < min {
		return def
	}
	if val > max {
		return max
	}
	return val
}

// QueryTime reads an RFC 3339 query parameter. Missing or malformed values
// yield nil.
func QueryTime(r *http.Request, key string) *time.Time {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return nil
	}
	return &t
}
