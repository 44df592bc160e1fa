package ai

import (
	"encoding/json"
	"strings"
)

// Strategy names a parsing heuristic of the extraction chain.
type Strategy string

const (
	StrategyNone            Strategy = ""
	StrategyDirect          Strategy = "direct"
	StrategyBracketScan     Strategy = "bracket_scan"
	StrategyQuoteNormalized Strategy = "quote_normalized"
)

// Extraction is the result of running the strategy chain over raw model text.
type Extraction struct {
	Payload  map[string]interface{}
	Strategy Strategy
	Attempts []Strategy
}

type extractionStrategy struct {
	name    Strategy
	attempt func(raw string) (interface{}, bool)
}

// Extractor applies the extraction strategies in fixed order and returns the
// first candidate that passes the schema validator.
type Extractor struct {
	validator  *SchemaValidator
	strategies []extractionStrategy
}

// NewExtractor builds the direct, bracket-scan, quote-normalized chain.
func NewExtractor(validator *SchemaValidator) *Extractor {
	return &Extractor{
		validator: validator,
		strategies: []extractionStrategy{
			{name: StrategyDirect, attempt: parseDirect},
			{name: StrategyBracketScan, attempt: parseBracketSpan},
			{name: StrategyQuoteNormalized, attempt: parseQuoteNormalized},
		},
	}
}

// Extract returns false when no strategy yields a valid document.
func (e *Extractor) Extract(raw string) (Extraction, bool) {
	result := Extraction{Attempts: make([]Strategy, 0, len(e.strategies))}
	for _, strategy := range e.strategies {
		result.Attempts = append(result.Attempts, strategy.name)

		candidate, ok := strategy.attempt(raw)
		if !ok || !e.validator.Validate(candidate) {
			continue
		}

		result.Payload = candidate.(map[string]interface{})
		result.Strategy = strategy.name
		return result, true
	}
	return result, false
}

func parseDirect(raw string) (interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil, false
	}
	return decodeCandidate(trimmed)
}

// parseBracketSpan decodes the greedy span from the first '{' to the last '}'.
func parseBracketSpan(raw string) (interface{}, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	return decodeCandidate(raw[start : end+1])
}

// parseQuoteNormalized rewrites every single quote as a double quote. Apostrophes
// inside values are corrupted by this.
func parseQuoteNormalized(raw string) (interface{}, bool) {
	return parseBracketSpan(strings.ReplaceAll(raw, "'", `"`))
}

func decodeCandidate(payload string) (interface{}, bool) {
	var candidate interface{}
	if err := json.Unmarshal([]byte(payload), &candidate); err != nil {
		return nil, false
	}
	return candidate, true
}
