package caption

import "strings"

var categoryAliases = map[string]string{
	"entertainment": "entretenimento",
	"education":     "educacao",
	"educação":      "educacao",
	"technology":    "tecnologia",
	"tech":          "tecnologia",
	"music":         "musica",
	"música":        "musica",
	"sports":        "esportes",
	"gaming":        "games",
	"comedy":        "humor",
}

// NormalizeCategory lowercases and resolves English aliases to the canonical keys.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if canonical, ok := categoryAliases[c]; ok {
		return canonical
	}
	return c
}
