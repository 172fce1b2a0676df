package caption

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxHashtags is the ceiling applied by CleanHashtags.
const MaxHashtags = 30

const minHashtagLen = 3

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9_áàâãéêíóôõúüçÁÀÂÃÉÊÍÓÔÕÚÜÇ]`)

// Truncate cuts text to max runes, replacing the tail with "..." when it overflows.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	if max <= 3 {
		return strings.Repeat(".", max)
	}
	runes := []rune(text)
	return string(runes[:max-3]) + "..."
}

// LimitHashtags keeps the first n tags in their original order.
func LimitHashtags(tags []string, n int) []string {
	if n < 0 || len(tags) <= n {
		return tags
	}
	return tags[:n]
}

// CleanHashtags normalizes tags: leading '#' and disallowed characters stripped,
// short tokens dropped, duplicates removed keeping the first occurrence.
func CleanHashtags(tags []string, limit int) []string {
	if limit <= 0 || limit > MaxHashtags {
		limit = MaxHashtags
	}
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		tag = disallowed.ReplaceAllString(tag, "")
		if utf8.RuneCountInString(tag) < minHashtagLen {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
		if len(cleaned) == limit {
			break
		}
	}
	return cleaned
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}

// Format lays out a caption for the platform. A rule suffix always survives truncation.
func (rule Rule) Format(description string, tags []string) string {
	tags = LimitHashtags(tags, rule.MaxHashtags)

	var b strings.Builder
	b.WriteString(rule.Prefix)
	b.WriteString(description)
	b.WriteString(rule.WrapSuffix)
	if len(tags) > 0 {
		if rule.Layout == "inline" {
			b.WriteString(" ")
		} else {
			b.WriteString("\n\n")
		}
		b.WriteString(joinTags(tags))
	}
	b.WriteString(rule.CallToAction)

	if rule.Suffix == "" {
		return Truncate(b.String(), rule.MaxCaption)
	}
	room := rule.MaxCaption - utf8.RuneCountInString(rule.Suffix)
	return Truncate(b.String(), room) + rule.Suffix
}

// Title truncates a title for platforms that carry one.
func (rule Rule) Title(title string) string {
	if rule.MaxTitle <= 0 {
		return title
	}
	return Truncate(title, rule.MaxTitle)
}

// Description truncates the bare description plus call-to-action, without hashtags.
func (rule Rule) Description(description string) string {
	return Truncate(description+rule.CallToAction, rule.MaxCaption)
}
