package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/viralflow/internal/caption"
)

const fallbackHashtagLimit = 20

var viralTags = []string{"viral", "trending", "fyp", "brasil"}

var categoryTags = map[string][]string{
	"entretenimento": {"entretenimento", "diversao", "viral", "engracado"},
	"educacao":       {"educacao", "aprender", "conhecimento", "dicas"},
	"tecnologia":     {"tech", "tecnologia", "inovacao", "digital"},
	"lifestyle":      {"lifestyle", "vida", "motivacao", "inspiracao"},
	"humor":          {"humor", "engracado", "comedia", "riso"},
	"musica":         {"musica", "som", "audio", "ritmo"},
	"esportes":       {"esportes", "fitness", "atleta", "treino"},
	"games":          {"games", "gaming", "jogos", "gamer"},
}

var (
	defaultHashtags    = []string{"viral", "trending", "fyp"}
	defaultTips        = []string{"Use emojis", "Faça perguntas", "Poste no horário certo"}
	fallbackTips       = []string{"Poste no horário de pico da sua audiência", "Use emojis para chamar atenção", "Faça perguntas para gerar comentários", "Responda aos comentários rapidamente"}
	titleWordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	defaultDescription = "Conteúdo incrível que você precisa ver!"
)

const fallbackTemplate = "🔥 %s 🔥\n\nNão perca este conteúdo incrível! 💫\n\n👆 Curta se você gostou!\n💬 Comenta aqui embaixo!\n🔄 Compartilha com os amigos!"

// CategoryTags returns the base hashtags for a category, nil when unknown.
func CategoryTags(category string) []string {
	return categoryTags[caption.NormalizeCategory(category)]
}

func fallbackHashtags(title, category string) []string {
	tags := append([]string(nil), viralTags...)
	tags = append(tags, CategoryTags(category)...)
	for _, word := range titleWordPattern.FindAllString(strings.ToLower(title), -1) {
		if utf8.RuneCountInString(word) >= 4 {
			tags = append(tags, word)
		}
	}
	return caption.CleanHashtags(tags, fallbackHashtagLimit)
}

func fallbackDescription(title string) string {
	return fmt.Sprintf(fallbackTemplate, strings.TrimSpace(title))
}
