package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/graphscope/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound // 404
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidStrategy, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidPattern, errors.ErrCodeUnsupported:
		return http.StatusBadRequest // 400
	case errors.ErrCodeGraphFrozen:
		return http.StatusConflict // 409
	case errors.ErrCodeMalformedData, errors.ErrCodeResolutionIneffective, errors.ErrCodeUnboundedEnumeration:
		return http.StatusUnprocessableEntity // 422
	case errors.ErrCodeNetwork:
		return http.StatusServiceUnavailable // 503
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes err with the status derived from its code. Errors
// without a code are internal; their text is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		WriteJSON(w, ErrorResponse{Error: "request body too large", Code: string(errors.ErrCodeInvalidInput)},
			http.StatusRequestEntityTooLarge)
		return
	}

	code := errors.GetCode(err)
	if code == "" {
		WriteJSON(w, ErrorResponse{Error: "internal error", Code: string(errors.ErrCodeInternal)},
			http.StatusInternalServerError)
		return
	}
	WriteJSON(w, ErrorResponse{Error: errors.UserMessage(err), Code: string(code)}, StatusFor(code))
}

// decodeError reports a request body that could not be decoded. Coded errors
// raised by field decoders, such as an unknown strategy, keep their code.
func decodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) || errors.GetCode(err) != "" {
		WriteError(w, err)
		return
	}
	badRequest(w, "invalid request body: %v", err)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	WriteError(w, errors.New(errors.ErrCodeInvalidInput, format, args...))
}
