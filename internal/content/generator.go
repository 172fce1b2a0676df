package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/models"
)

type GenerateRequest struct {
	Title        string
	Category     string
	Platforms    []string
	Tone         string
	Audience     string
	DurationHint string
}

type Options struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	Retry        RetryPolicy
	HashtagLimit int
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		MaxTokens:    2000,
		Temperature:  0.8,
		Timeout:      30 * time.Second,
		Retry:        DefaultRetryPolicy(),
		HashtagLimit: caption.MaxHashtags,
		Now:          time.Now,
	}
}

// Generator never fails: when the provider cannot produce usable content it
// falls back to deterministic content built from the title and category.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) *models.GeneratedContent
}

type generator struct {
	provider Provider
	rules    *caption.Rules
	opts     Options
}

// NewGenerator builds a generator. A nil provider always yields fallback content.
func NewGenerator(provider Provider, rules *caption.Rules, opts Options) Generator {
	if rules == nil {
		rules = caption.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HashtagLimit <= 0 || opts.HashtagLimit > caption.MaxHashtags {
		opts.HashtagLimit = caption.MaxHashtags
	}
	return &generator{provider: provider, rules: rules, opts: opts}
}

func (g *generator) Generate(ctx context.Context, req GenerateRequest) *models.GeneratedContent {
	if len(req.Platforms) == 0 {
		req.Platforms = g.rules.Names()
	}
	if g.provider == nil {
		return g.fallback(req)
	}

	var malformed string
	policy := g.opts.Retry
	for attempt := 0; attempt < policy.attempts(); attempt++ {
		if attempt > 0 {
			if err := policy.wait(ctx, attempt); err != nil {
				break
			}
		}

		r := g.call(ctx, req)
		if r.kind == Parsed {
			return g.build(req, r.content, false)
		}
		if r.kind == Malformed {
			malformed = r.raw
		}
		slog.Warn("content generation attempt failed",
			"title", req.Title, "attempt", attempt+1, "outcome", r.kind.String(), "error", errText(r.err))
	}

	if malformed != "" {
		if extracted, ok := extract(malformed); ok {
			slog.Info("using content extracted from malformed reply", "title", req.Title)
			return g.build(req, extracted, false)
		}
	}
	return g.fallback(req)
}

func (g *generator) call(ctx context.Context, req GenerateRequest) (r reply) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			r = reply{kind: TransportError, err: fmt.Errorf("provider panic: %v", p)}
		}
	}()

	raw, err := g.provider.Complete(ctx, Completion{
		System:      systemPrompt,
		Prompt:      buildPrompt(req, g.rules),
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	return classify(raw, err)
}

func (g *generator) fallback(req GenerateRequest) *models.GeneratedContent {
	slog.Info("using fallback content", "title", req.Title, "category", req.Category)
	return g.build(req, &aiReply{
		Hashtags:       fallbackHashtags(req.Title, req.Category),
		Description:    fallbackDescription(req.Title),
		EngagementTips: fallbackTips,
	}, true)
}

func (g *generator) build(req GenerateRequest, r *aiReply, fallback bool) *models.GeneratedContent {
	hashtags := caption.CleanHashtags(r.Hashtags, g.opts.HashtagLimit)
	if len(hashtags) == 0 {
		hashtags = append([]string(nil), defaultHashtags...)
	}
	description := strings.TrimSpace(r.Description)
	if description == "" {
		description = defaultDescription
	}
	tips := r.EngagementTips
	if len(tips) == 0 {
		tips = defaultTips
	}

	c := &models.GeneratedContent{
		Hashtags:       hashtags,
		Description:    description,
		Platforms:      make(map[string]models.PlatformVariant, len(req.Platforms)),
		EngagementTips: append([]string(nil), tips...),
		Fallback:       fallback,
		GeneratedAt:    g.opts.Now(),
	}
	for _, p := range req.Platforms {
		c.Platforms[p] = g.variant(p, req, description, hashtags, r.Platforms[p])
	}
	c.ViralScore = Score(req.Title, hashtags)
	c.ScorePrediction = Predict(c.ViralScore, req.Platforms)
	return c
}

func (g *generator) variant(platform string, req GenerateRequest, description string, hashtags []string, pr platformReply) models.PlatformVariant {
	rule := g.rules.For(platform)

	desc := description
	switch {
	case strings.TrimSpace(pr.Description) != "":
		desc = pr.Description
	case strings.TrimSpace(pr.Caption) != "":
		desc = pr.Caption
	}
	tags := hashtags
	if cleaned := caption.CleanHashtags(pr.Hashtags, g.opts.HashtagLimit); len(cleaned) > 0 {
		tags = cleaned
	}
	tags = caption.LimitHashtags(tags, rule.MaxHashtags)

	v := models.PlatformVariant{
		Description: rule.Description(desc),
		Hashtags:    append([]string(nil), tags...),
		Caption:     rule.Format(desc, tags),
		CategoryID:  rule.CategoryID(req.Category),
	}
	if rule.MaxTitle > 0 {
		v.Title = rule.Title(orDefault(pr.Title, req.Title))
	}
	return v
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
