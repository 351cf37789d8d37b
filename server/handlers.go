package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets"
	"github.com/flanksource/worksheets/api"
)

// ErrGenerateFailed is the error message of every failed PDF request
const ErrGenerateFailed = "Failed to generate PDF"

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debugf("failed to write response: %v", err)
	}
}

// WriteError writes an api.ErrorResponse
func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, api.ErrorResponse{Error: message, Details: details})
}

// ReadJSON decodes a request body of at most limit bytes into target.
// Unknown fields are ignored.
func ReadJSON(w http.ResponseWriter, r *http.Request, limit int64, target interface{}) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body larger than %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	var doc api.Worksheet
	if err := ReadJSON(w, r, s.config.MaxBodyBytes, &doc); err != nil {
		logger.Warnf("[%s] %v", RequestID(r.Context()), err)
		WriteError(w, http.StatusInternalServerError, ErrGenerateFailed, err.Error())
		return
	}

	data, err := s.generate(r, &doc)
	if err != nil {
		logger.Errorf("[%s] failed to generate %q: %v", RequestID(r.Context()), doc.Title, err)
		WriteError(w, http.StatusInternalServerError, ErrGenerateFailed, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, worksheets.Filename(doc.Title)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Debugf("[%s] client went away: %v", RequestID(r.Context()), err)
	}
}

// generate converts a generator panic into an error so that the caller
// still receives the JSON failure body
func (s *Server) generate(r *http.Request, doc *api.Worksheet) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return s.generator.Generate(r.Context(), doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
