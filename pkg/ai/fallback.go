package ai

import "encoding/json"

// fallbackDocument is returned whenever generation or extraction fails. It
// carries every field of every schema variant.
const fallbackDocument = `{
  "isGibberish": false,
  "score": {"overall": 75, "marketPotential": 70, "technicalFeasibility": 80},
  "swotAnalysis": {
    "strengths": ["Innovative", "Scalable", "Well-targeted"],
    "weaknesses": ["High dev cost", "Low adoption risk", "Unclear pricing"],
    "opportunities": ["Growing market", "Tech trends", "Global reach"],
    "threats": ["Regulations", "Competitors", "Economic instability"]
  },
  "mvpSuggestions": ["Build landing page", "Create waitlist", "Offer demo"],
  "businessModelIdeas": ["Subscription", "Freemium", "Tiered pricing"],
  "marketAnalysis": {
    "targetMarket": "Urban eco-conscious youth",
    "tam": "$50000000000",
    "sam": "$5000000000",
    "som": "$100000000",
    "growthRate": "15% CAGR due to rising demand for sustainable consumer products globally",
    "trends": ["AI for sustainability", "Eco-lifestyle tracking"],
    "competitors": ["Greenly", "Joro"],
    "customerNeeds": ["Actionable tips", "Progress tracking"],
    "barriersToEntry": ["Trust", "Accuracy", "Engagement"]
  }
}`

func init() {
	if !json.Valid([]byte(fallbackDocument)) {
		panic("ai: fallback evaluation document is not valid JSON")
	}
}

// FallbackEvaluation returns a fresh copy of the static fallback document.
func FallbackEvaluation() map[string]interface{} {
	var document map[string]interface{}
	if err := json.Unmarshal([]byte(fallbackDocument), &document); err != nil {
		panic("ai: decode fallback evaluation: " + err.Error())
	}
	return document
}
