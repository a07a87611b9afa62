package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/db"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/request"
	"github.com/amonks/soundscout/soundcloud"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	codeInvalidArgument  = "INVALID_ARGUMENT"
	codeValidation       = "VALIDATION_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeScrapeFailed     = "SCRAPE_FAILED"
	codeInternal         = "INTERNAL_ERROR"
	codeRateLimited      = "RATE_LIMIT_EXCEEDED"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// Response is the envelope around every API reply.
type Response struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func (s *Server) metadata(r *http.Request) Metadata {
	return Metadata{
		Timestamp: s.now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("error encoding response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(bs); err != nil {
		logging.Debug().Err(err).Msg("error writing response")
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	writeJSON(w, status, Response{Success: true, Data: v, Metadata: s.metadata(r)})
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Response{
		Error:    &APIError{Code: code, Message: message},
		Metadata: s.metadata(r),
	})
}

// fail classifies err and responds with the matching status. Internal
// errors are logged and hidden from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	log := logging.Ctx(r.Context())
	if status >= 500 {
		log.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		log.Info().Err(err).Str("code", code).Msg("request rejected")
	}
	switch {
	case status == http.StatusInternalServerError:
		message = "internal error"
	case code == codeValidation:
		message = validationMessage(err)
	}
	s.respondError(w, r, status, code, message)
}

func classify(err error) (int, string) {
	var (
		validationErrs validator.ValidationErrors
		scrapeErr      *soundcloud.ScrapeError
		fetchErr       *request.FetchError
		timeoutErr     *request.TimeoutError
		networkErr     *request.NetworkError
	)
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, errBadBody):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, data.ErrInvalidArgument):
		return http.StatusBadRequest, codeInvalidArgument
	case errors.Is(err, soundcloud.ErrArtistNotFound), errors.Is(err, soundcloud.ErrTrackNotFound), errors.Is(err, db.ErrTaskNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.As(err, &scrapeErr), errors.As(err, &fetchErr), errors.As(err, &timeoutErr), errors.As(err, &networkErr):
		return http.StatusBadGateway, codeScrapeFailed
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
