package ai

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const evaluationOutputFormat = `Output JSON format:
{
  "isGibberish": boolean,
  "score": {
    "overall": number,
    "marketPotential": number,
    "technicalFeasibility": number
  },
  "swotAnalysis": {
    "strengths": [string, ...],
    "weaknesses": [string, ...],
    "opportunities": [string, ...],
    "threats": [string, ...]
  },
  "mvpSuggestions": [string, string, string],
  "businessModelIdeas": [string, ...],
  "marketAnalysis": {
    "targetMarket": string,
    "tam": string,
    "sam": string,
    "som": string,
    "growthRate": string,
    "trends": [string, ...],
    "competitors": [string, ...],
    "customerNeeds": [string, ...],
    "barriersToEntry": [string, ...]
  }
}
Only output valid JSON. No comments or markdown.`

// PromptBuilder renders the evaluation prompt for an idea. Markup in the
// submitted fields is stripped before it reaches the model.
type PromptBuilder struct {
	sanitizer *bluemonday.Policy
}

// NewPromptBuilder constructs a prompt builder with a strict sanitizer.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{sanitizer: bluemonday.StrictPolicy()}
}

// Build renders the prompt.
func (b *PromptBuilder) Build(idea StartupIdea) string {
	builder := strings.Builder{}
	builder.WriteString("You are a startup evaluator. Analyze the following startup idea and return valid JSON only. Do not repeat input.\n\n")
	builder.WriteString("Startup:\n")
	builder.WriteString("Title: ")
	builder.WriteString(b.clean(idea.Title))
	builder.WriteString("\nProblem: ")
	builder.WriteString(b.clean(idea.Problem))
	builder.WriteString("\nSolution: ")
	builder.WriteString(b.clean(idea.Solution))
	builder.WriteString("\nAudience: ")
	builder.WriteString(b.clean(idea.Audience))
	builder.WriteString("\nBusiness Model: ")
	builder.WriteString(b.clean(idea.BusinessModel))
	builder.WriteString("\n\n")
	builder.WriteString(evaluationOutputFormat)
	return builder.String()
}

func (b *PromptBuilder) clean(value string) string {
	// bluemonday escapes entities; the prompt wants plain text back.
	return strings.TrimSpace(html.UnescapeString(b.sanitizer.Sanitize(value)))
}
