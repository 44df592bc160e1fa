package dto

import (
	"strings"

	"github.com/noah-isme/ideascope-api/pkg/ai"
)

// StartupIdeaRequest is the payload accepted by the evaluation endpoints.
type StartupIdeaRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Problem       string `json:"problem" validate:"required,max=4000"`
	Solution      string `json:"solution" validate:"required,max=4000"`
	Audience      string `json:"audience" validate:"required,max=2000"`
	BusinessModel string `json:"businessModel" validate:"required,max=2000"`
}

// Normalize trims surrounding whitespace from every field.
func (r StartupIdeaRequest) Normalize() StartupIdeaRequest {
	return StartupIdeaRequest{
		Title:         strings.TrimSpace(r.Title),
		Problem:       strings.TrimSpace(r.Problem),
		Solution:      strings.TrimSpace(r.Solution),
		Audience:      strings.TrimSpace(r.Audience),
		BusinessModel: strings.TrimSpace(r.BusinessModel),
	}
}

// ToIdea converts the request into the pipeline input.
func (r StartupIdeaRequest) ToIdea() ai.StartupIdea {
	return ai.StartupIdea{
		Title:         r.Title,
		Problem:       r.Problem,
		Solution:      r.Solution,
		Audience:      r.Audience,
		BusinessModel: r.BusinessModel,
	}
}

// EvaluationResponse carries the evaluation document plus how it was produced.
type EvaluationResponse struct {
	Evaluation     map[string]interface{} `json:"evaluation"`
	Strategy       string                 `json:"strategy,omitempty"`
	Fallback       bool                   `json:"fallback"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	Cached         bool                   `json:"cached"`
	DurationMs     int64                  `json:"durationMs"`
}

// BackendStatusResponse is returned by the backend readiness endpoint.
type BackendStatusResponse struct {
	Available bool   `json:"available"`
	Provider  string `json:"provider"`
	Error     string `json:"error,omitempty"`
}
