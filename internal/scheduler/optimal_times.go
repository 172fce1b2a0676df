package scheduler

import "github.com/maheshrc27/viralflow/internal/caption"

var optimalTimes = map[string]map[string][]string{
	"youtube": {
		"general":        {"18:00", "20:00", "12:00", "14:00"},
		"entretenimento": {"19:00", "21:00"},
		"educacao":       {"12:00", "15:00", "18:00"},
		"games":          {"20:00", "22:00"},
	},
	"instagram": {
		"general":   {"11:00", "13:00", "17:00", "19:00"},
		"lifestyle": {"11:00", "14:00"},
		"humor":     {"18:00", "20:00"},
		"musica":    {"19:00", "21:00"},
	},
	"tiktok": {
		"general":        {"06:00", "10:00", "19:00", "20:00"},
		"humor":          {"18:00", "21:00"},
		"entretenimento": {"19:00", "22:00"},
		"educacao":       {"12:00", "16:00"},
	},
	"kawai": {
		"general": {"12:00", "15:00", "18:00", "20:00"},
	},
}

// OptimalPostingTimes suggests HH:MM slots for a platform and category.
func OptimalPostingTimes(platform, category string) []string {
	byCategory, ok := optimalTimes[platform]
	if !ok {
		return []string{"12:00", "18:00"}
	}
	if times, ok := byCategory[caption.NormalizeCategory(category)]; ok {
		return append([]string(nil), times...)
	}
	return append([]string(nil), byCategory["general"]...)
}
