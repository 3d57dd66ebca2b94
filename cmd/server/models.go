package main

import (
	"time"

	"github.com/liamcoop/dichotomous/report"
	"github.com/liamcoop/dichotomous/rules"
)

// API request and response models

// KeyRequest is the body for creating or replacing a key
type KeyRequest struct {
	Name   string `json:"name" example:"birds.dck"`
	Source string `json:"source" example:"feathers:result:Bird\n*:result:Not a bird\n"`
}

// KeyResponse represents a stored key in API responses
type KeyResponse struct {
	ID        string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name" example:"birds.dck"`
	Source    string    `json:"source"`
	Rules     int       `json:"rules" example:"2"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
}

// KeysListResponse represents the response for listing keys
type KeysListResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// EvaluateRequest is the body for classifying objects against a key
type EvaluateRequest struct {
	Objects string `json:"objects" example:"Sparrow\nfeathers\n%%\nCat\n"`
	Where   string `json:"where,omitempty" example:"!indeterminate"`
	Workers int    `json:"workers,omitempty" example:"4"`
}

// EvaluateResponse holds one entry per reported object, in input order
type EvaluateResponse struct {
	Results        []report.Entry `json:"results"`
	EvaluationTime string         `json:"evaluationTime" example:"120µs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid key source"`
	Details string `json:"details,omitempty" example:"birds.dck:2: action not recognized"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status" example:"healthy"`
	KeysLoaded int    `json:"keysLoaded" example:"3"`
	Error      string `json:"error,omitempty"`
}

func newKeyResponse(sk *rules.StoredKey, key rules.Key) KeyResponse {
	return KeyResponse{
		ID:        sk.ID,
		Name:      sk.Name,
		Source:    sk.Source,
		Rules:     len(key.Rules),
		CreatedAt: sk.CreatedAt,
		UpdatedAt: sk.UpdatedAt,
	}
}
