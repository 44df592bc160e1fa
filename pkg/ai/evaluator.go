package ai

import "context"

// StartupIdea contains the idea description submitted for evaluation.
type StartupIdea struct {
	Title         string `json:"title"`
	Problem       string `json:"problem"`
	Solution      string `json:"solution"`
	Audience      string `json:"audience"`
	BusinessModel string `json:"businessModel"`
}

// Score holds the numeric ratings of an evaluation, 0-100 by convention.
type Score struct {
	Overall              float64 `json:"overall"`
	MarketPotential      float64 `json:"marketPotential"`
	TechnicalFeasibility float64 `json:"technicalFeasibility"`
}

// SwotAnalysis lists strengths, weaknesses, opportunities and threats.
type SwotAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// MarketAnalysis is the optional market section of an evaluation.
type MarketAnalysis struct {
	TargetMarket    string   `json:"targetMarket"`
	TAM             string   `json:"tam"`
	SAM             string   `json:"sam"`
	SOM             string   `json:"som"`
	GrowthRate      string   `json:"growthRate"`
	Trends          []string `json:"trends"`
	Competitors     []string `json:"competitors"`
	CustomerNeeds   []string `json:"customerNeeds"`
	BarriersToEntry []string `json:"barriersToEntry"`
}

// Evaluation is the typed shape of an evaluation document. The pipeline itself
// passes documents around as generic JSON objects so model output is returned verbatim.
type Evaluation struct {
	Score              Score           `json:"score"`
	SwotAnalysis       SwotAnalysis    `json:"swotAnalysis"`
	MVPSuggestions     []string        `json:"mvpSuggestions"`
	BusinessModelIdeas []string        `json:"businessModelIdeas"`
	MarketAnalysis     *MarketAnalysis `json:"marketAnalysis,omitempty"`
	IsGibberish        *bool           `json:"isGibberish,omitempty"`
}

// Gateway is a text-generating backend with an availability probe.
type Gateway interface {
	// Probe reports nil when the backend is available.
	Probe(ctx context.Context) error
	// Generate performs a single generation attempt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Provider names the backend for logs and metrics.
	Provider() string
}

// Evaluator turns a startup idea into a schema-valid evaluation document.
type Evaluator interface {
	Evaluate(ctx context.Context, idea StartupIdea) (Outcome, error)
	Ready(ctx context.Context) error
}
