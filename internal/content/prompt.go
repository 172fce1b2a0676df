package content

import (
	"fmt"
	"strings"

	"github.com/maheshrc27/viralflow/internal/caption"
)

const systemPrompt = `You are a social media marketing specialist who writes viral captions and hashtags.
Always answer with valid JSON shaped like:
{
  "hashtags": ["tag", "tag"],
  "description": "main description",
  "platform_specific": {
    "<platform>": {"title": "optional title", "description": "platform description", "hashtags": ["tag"]}
  },
  "engagement_tips": ["tip", "tip"]
}
Mix popular tags with niche ones, write descriptions that spark curiosity, use emojis sparingly
and adapt the tone to each platform.`

func buildPrompt(req GenerateRequest, rules *caption.Rules) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate viral content for this video.\n\n")
	fmt.Fprintf(&b, "TITLE: %s\n", req.Title)
	fmt.Fprintf(&b, "CATEGORY: %s\n", orDefault(req.Category, "general"))
	fmt.Fprintf(&b, "PLATFORMS: %s\n", strings.Join(req.Platforms, ", "))
	fmt.Fprintf(&b, "TONE: %s\n", orDefault(req.Tone, "engaging"))
	fmt.Fprintf(&b, "AUDIENCE: %s\n", orDefault(req.Audience, "general"))
	if req.DurationHint != "" {
		fmt.Fprintf(&b, "DURATION: %s\n", req.DurationHint)
	}

	b.WriteString("\nPlatform limits:\n")
	for _, p := range req.Platforms {
		rule := rules.For(p)
		fmt.Fprintf(&b, "- %s: max %d hashtags, max %d caption characters\n", strings.ToUpper(p), rule.MaxHashtags, rule.MaxCaption)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
