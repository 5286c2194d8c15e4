package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/logger"
)

// errorResponse is the error body of every endpoint.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error) bool

// defaultErrorHandlers is the ordered chain shared by both servers.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		clientErrorHandler(domain.ErrInvalidQuery),
		clientErrorHandler(domain.ErrInvalidUpload),
		clientErrorHandler(domain.ErrUnsupportedFileType),
		clientErrorHandler(domain.ErrInvalidUsagePeriod),
		processingErrorHandler,
		serverErrorHandler(domain.ErrBackendFailure),
		serverErrorHandler(domain.ErrBlobStoreFailure),
	}
}

// clientErrorHandler maps a validation sentinel to 400. Not an exceptional event, so debug only.
func clientErrorHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		logger.FromContext(r.Context()).Debug("request rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return true
	}
}

// serverErrorHandler maps a dependency failure to 500 with the error string.
// The usecase already logged the cause.
func serverErrorHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, _ *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return true
	}
}

// processingErrorHandler reports record iteration failures with the cause in details.
func processingErrorHandler(w http.ResponseWriter, _ *http.Request, err error) bool {
	if !errors.Is(err, domain.ErrResultProcessing) {
		return false
	}
	details := err.Error()
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			if !errors.Is(e, domain.ErrResultProcessing) {
				details = e.Error()
				break
			}
		}
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "error processing results",
		Details: details,
	})
	return true
}

func handleError(handlers []errorHandler, w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range handlers {
		if h(w, r, err) {
			return
		}
	}
	logger.FromContext(r.Context()).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
