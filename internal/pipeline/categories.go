package pipeline

import "strings"

// categorySynonyms folds common model and user phrasings onto canonical
// category names. Unmapped non-empty values pass through verbatim as
// user-defined categories.
var categorySynonyms = map[string]string{
	"food":           "food",
	"foods":          "food",
	"eating":         "food",
	"meal":           "food",
	"meals":          "food",
	"groceries":      "food",
	"grocery":        "food",
	"restaurant":     "food",
	"drink":          "drinks",
	"drinks":         "drinks",
	"coffee":         "drinks",
	"transport":      "transport",
	"transportation": "transport",
	"travel":         "transport",
	"taxi":           "transport",
	"fuel":           "transport",
	"gas":            "transport",
	"commute":        "transport",
	"rent":           "housing",
	"housing":        "housing",
	"house":          "housing",
	"utilities":      "utilities",
	"utility":        "utilities",
	"bills":          "utilities",
	"bill":           "utilities",
	"electricity":    "utilities",
	"internet":       "utilities",
	"shopping":       "shopping",
	"clothes":        "shopping",
	"clothing":       "shopping",
	"entertainment":  "entertainment",
	"fun":            "entertainment",
	"movies":         "entertainment",
	"games":          "entertainment",
	"health":         "health",
	"healthcare":     "health",
	"medical":        "health",
	"medicine":       "health",
	"pharmacy":       "health",
	"education":      "education",
	"school":         "education",
	"books":          "education",
	"salary":         "salary",
	"wage":           "salary",
	"wages":          "salary",
	"paycheck":       "salary",
	"income":         "salary",
	"gift":           "gifts",
	"gifts":          "gifts",
	"other":          FallbackCategory,
	"misc":           FallbackCategory,
	"miscellaneous":  FallbackCategory,
	"unknown":        FallbackCategory,
}

// NormalizeCategory lower-cases, trims and folds cat through the synonym
// table. Empty input yields the fallback category; unmapped values pass
// through normalized but otherwise untouched. Deterministic and
// case/whitespace-insensitive.
func NormalizeCategory(cat string) string {
	c := strings.ToLower(strings.TrimSpace(cat))
	if c == "" {
		return FallbackCategory
	}
	if canonical, ok := categorySynonyms[c]; ok {
		return canonical
	}
	return c
}
