package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liamcoop/dichotomous/internal/logger"
	"github.com/liamcoop/dichotomous/report"
	"github.com/liamcoop/dichotomous/rules"
)

// objectsFilename names request-supplied object text in error messages
const objectsFilename = "objects"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unhealthy",
				Error:  err.Error(),
			})
			return
		}
	}

	keys, err := s.engine.ListKeys()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to list keys", err)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		KeysLoaded: len(keys),
	})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	stored, err := s.engine.ListKeys()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list keys", err)
		return
	}

	resp := KeysListResponse{Keys: make([]KeyResponse, 0, len(stored))}
	for _, sk := range stored {
		key, err := s.engine.Key(sk.ID)
		if err != nil {
			respondError(w, statusFor(err), "failed to load key", err)
			return
		}
		resp.Keys = append(resp.Keys, newKeyResponse(sk, key))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" || req.Source == "" {
		respondError(w, http.StatusBadRequest, "name and source are required", nil)
		return
	}

	sk := &rules.StoredKey{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Source: req.Source,
	}

	key, err := s.engine.AddKey(sk)
	if err != nil {
		respondError(w, statusFor(err), "failed to add key", err)
		return
	}
	logger.Info("key created", "id", sk.ID, "name", sk.Name, "rules", len(key.Rules))

	respondJSON(w, http.StatusCreated, newKeyResponse(sk, key))
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyId")

	sk, err := s.engine.StoredKey(keyID)
	if err != nil {
		respondError(w, statusFor(err), "key not found", err)
		return
	}
	key, err := s.engine.Key(keyID)
	if err != nil {
		respondError(w, statusFor(err), "failed to load key", err)
		return
	}

	respondJSON(w, http.StatusOK, newKeyResponse(sk, key))
}

func (s *Server) handleUpdateKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyId")

	var req KeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" || req.Source == "" {
		respondError(w, http.StatusBadRequest, "name and source are required", nil)
		return
	}

	sk := &rules.StoredKey{
		ID:     keyID,
		Name:   req.Name,
		Source: req.Source,
	}

	key, err := s.engine.UpdateKey(sk)
	if err != nil {
		respondError(w, statusFor(err), "failed to update key", err)
		return
	}
	logger.Info("key updated", "id", sk.ID, "rules", len(key.Rules))

	respondJSON(w, http.StatusOK, newKeyResponse(sk, key))
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyId")

	if err := s.engine.DeleteKey(keyID); err != nil {
		respondError(w, statusFor(err), "failed to delete key", err)
		return
	}
	logger.Info("key deleted", "id", keyID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyId")

	var req EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var filter *report.Filter
	if req.Where != "" {
		f, err := report.NewFilter(req.Where)
		if err != nil {
			s.metrics.evalFailure.WithLabelValues("filter").Inc()
			respondError(w, http.StatusBadRequest, "invalid filter", err)
			return
		}
		filter = f
	}

	startTime := time.Now()

	results, err := s.engine.Classify(r.Context(), keyID, objectsFilename, req.Objects, req.Workers)
	if err != nil {
		s.metrics.evalFailure.WithLabelValues(failureReason(err)).Inc()
		respondError(w, statusFor(err), "evaluation failed", err)
		return
	}

	entries, err := report.Entries(results, filter)
	if err != nil {
		s.metrics.evalFailure.WithLabelValues("filter").Inc()
		respondError(w, http.StatusBadRequest, "filter failed", err)
		return
	}

	evaluationTime := time.Since(startTime)

	s.metrics.objects.Add(float64(len(results)))
	for _, c := range results {
		if c.Indeterminate {
			s.metrics.outcomes.WithLabelValues("indeterminate").Inc()
		} else {
			s.metrics.outcomes.WithLabelValues("labelled").Inc()
		}
	}
	logger.Debug("objects classified", "key", keyID, "objects", len(results), "reported", len(entries), "duration", evaluationTime)

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Results:        entries,
		EvaluationTime: evaluationTime.String(),
	})
}

// statusFor maps engine errors onto HTTP status codes
func statusFor(err error) int {
	var fe *rules.FormatError
	var ee *rules.EvalError
	switch {
	case errors.Is(err, rules.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrKeyExists):
		return http.StatusConflict
	case errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.As(err, &ee):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func failureReason(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "format"
	case http.StatusUnprocessableEntity:
		return "key_structure"
	default:
		return "internal"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	logger.CountHTTPStatus(status)
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error(message, "status", status, "error", err)
		}
	}
	respondJSON(w, status, response)
}
