package concierge

import "strings"

type Intent string

const (
	IntentProduct Intent = "PRODUCT"
	IntentRecipe  Intent = "RECIPE"
)

// Rule assigns Intent to any utterance containing Pattern.
type Rule struct {
	Pattern string
	Intent  Intent
}

// IntentRules is checked in order; the first match wins. Utterances that
// match nothing are product queries.
var IntentRules = []Rule{
	{Pattern: "resep", Intent: IntentRecipe},
	{Pattern: "recipe", Intent: IntentRecipe},
	{Pattern: "masak", Intent: IntentRecipe},
	{Pattern: "cook", Intent: IntentRecipe},
	{Pattern: "bikin", Intent: IntentRecipe},
	{Pattern: "buat makanan", Intent: IntentRecipe},
	{Pattern: "menu", Intent: IntentRecipe},
	{Pattern: "hidangan", Intent: IntentRecipe},
}

// SuggestionPatterns mark a request for general ideas rather than a
// specific dish.
var SuggestionPatterns = []string{
	"saran", "suggest", "recommend", "ide", "idea", "apa yang", "what should",
}

// Classify returns the intent of the first rule whose pattern appears in
// the lower-cased utterance.
func Classify(utterance string, rules []Rule) Intent {
	lower := strings.ToLower(utterance)
	for _, r := range rules {
		if strings.Contains(lower, r.Pattern) {
			return r.Intent
		}
	}
	return IntentProduct
}

// WantsSuggestions reports whether the utterance asks for general ideas.
func WantsSuggestions(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, p := range SuggestionPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
