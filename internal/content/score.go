package content

import (
	"strings"

	"github.com/maheshrc27/viralflow/internal/models"
)

var impactWords = []string{"amazing", "incredible", "shocking", "unbelievable", "insane", "incrível", "chocante"}

var canonicalViralTags = map[string]bool{"viral": true, "trending": true, "fyp": true}

var platformMultipliers = map[string]float64{
	"tiktok":    1.2,
	"instagram": 1.1,
	"youtube":   1.0,
	"kawai":     0.9,
}

// Score is an additive heuristic in [0, 100]; every signal only ever adds.
func Score(title string, hashtags []string) int {
	score := 50
	lower := strings.ToLower(title)

	for _, w := range impactWords {
		if strings.Contains(lower, w) {
			score += 15
			break
		}
	}
	if strings.ContainsAny(title, "?!") {
		score += 10
	}
	if len(hashtags) >= 5 {
		score += 10
	}
	for _, tag := range hashtags {
		if canonicalViralTags[strings.ToLower(strings.TrimPrefix(tag, "#"))] {
			score += 15
			break
		}
	}
	return clamp(score)
}

// Predict scales a base score per platform.
func Predict(base int, platforms []string) map[string]int {
	out := make(map[string]int, len(platforms))
	for _, p := range platforms {
		m, ok := platformMultipliers[p]
		if !ok {
			m = 1.0
		}
		out[p] = clamp(int(float64(base) * m))
	}
	return out
}

// ScoreContent scores generated content against its post title.
func ScoreContent(title string, c *models.GeneratedContent) int {
	if c == nil {
		return Score(title, nil)
	}
	return Score(title+" "+c.Description, c.Hashtags)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
