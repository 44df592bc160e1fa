package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validEvaluationJSON = `{"score":{"overall":82,"marketPotential":77,"technicalFeasibility":90},` +
	`"swotAnalysis":{"strengths":["Clear niche"],"weaknesses":["Small team"],"opportunities":["Remote work growth"],"threats":["Incumbents"]},` +
	`"mvpSuggestions":["Landing page","Concierge pilot","Referral loop"],` +
	`"businessModelIdeas":["Subscription"],` +
	`"marketAnalysis":{"targetMarket":"Freelancers","tam":"$10B","sam":"$1B","som":"$50M","growthRate":"12% CAGR",` +
	`"trends":["Gig economy"],"competitors":["Upwork"],"customerNeeds":["Steady income"],"barriersToEntry":["Network effects"]}}`

func newTestValidator(t *testing.T, variant SchemaVariant) *SchemaValidator {
	t.Helper()
	fields, err := RequiredFields(variant)
	require.NoError(t, err)
	validator, err := NewSchemaValidator(fields)
	require.NoError(t, err)
	return validator
}

func decodeExpected(t *testing.T, payload string) map[string]interface{} {
	t.Helper()
	var expected map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &expected))
	return expected
}

func TestExtractDirectParseShortCircuits(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	result, ok := extractor.Extract("  " + validEvaluationJSON + "\n")
	require.True(t, ok)
	require.Equal(t, StrategyDirect, result.Strategy)
	require.Equal(t, []Strategy{StrategyDirect}, result.Attempts)
	require.Equal(t, decodeExpected(t, validEvaluationJSON), result.Payload)
}

func TestExtractBracketScanRecoversEmbeddedObject(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	raw := "Here is the result: " + validEvaluationJSON + " Thanks!"
	result, ok := extractor.Extract(raw)
	require.True(t, ok)
	require.Equal(t, StrategyBracketScan, result.Strategy)
	require.Equal(t, []Strategy{StrategyDirect, StrategyBracketScan}, result.Attempts)
	require.Equal(t, decodeExpected(t, validEvaluationJSON), result.Payload)
}

func TestExtractBracketScanHandlesCodeFences(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	result, ok := extractor.Extract("```json\n" + validEvaluationJSON + "\n```")
	require.True(t, ok)
	require.Equal(t, StrategyBracketScan, result.Strategy)
}

func TestExtractQuoteNormalization(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	singleQuoted := strings.ReplaceAll(validEvaluationJSON, `"`, "'")
	result, ok := extractor.Extract("Sure! " + singleQuoted)
	require.True(t, ok)
	require.Equal(t, StrategyQuoteNormalized, result.Strategy)
	require.Equal(t, []Strategy{StrategyDirect, StrategyBracketScan, StrategyQuoteNormalized}, result.Attempts)
	require.Equal(t, decodeExpected(t, validEvaluationJSON), result.Payload)
}

func TestExtractQuoteNormalizationWhenWholeTextIsSingleQuoted(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	result, ok := extractor.Extract(strings.ReplaceAll(validEvaluationJSON, `"`, "'"))
	require.True(t, ok)
	require.Equal(t, StrategyQuoteNormalized, result.Strategy)
}

func TestExtractExhaustion(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	cases := map[string]string{
		"refusal":            "I cannot help with that.",
		"empty":              "",
		"reversed braces":    "} nothing here {",
		"invalid json":       `{"score": {"overall": 80,}`,
		"array":              `["score", "swotAnalysis"]`,
		"missing fields":     `{"score":{"overall":80}}`,
		"apostrophe corrupt": `{'score': 'it's broken'}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			result, ok := extractor.Extract(raw)
			require.False(t, ok)
			require.Nil(t, result.Payload)
			require.Equal(t, StrategyNone, result.Strategy)
		})
	}
}

func TestExtractFallsThroughWhenDirectCandidateIsIncomplete(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV1))

	// The whole text is valid JSON but lacks required keys; the greedy span is the same text.
	raw := `{"note": "draft", "evaluation": ` + validEvaluationJSON + `}`
	_, ok := extractor.Extract(raw)
	require.False(t, ok)
}

func TestExtractGreedySpanIncludesUnrelatedBraces(t *testing.T) {
	extractor := NewExtractor(newTestValidator(t, SchemaV2))

	raw := validEvaluationJSON + " then a stray } brace"
	_, ok := extractor.Extract(raw)
	require.False(t, ok)
}
