package caption

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

type Rule struct {
	MaxTitle        int               `yaml:"max_title"`
	MaxCaption      int               `yaml:"max_caption"`
	MaxHashtags     int               `yaml:"max_hashtags"`
	Layout          string            `yaml:"layout"`
	Prefix          string            `yaml:"prefix"`
	WrapSuffix      string            `yaml:"wrap_suffix"`
	CallToAction    string            `yaml:"call_to_action"`
	Suffix          string            `yaml:"suffix"`
	URLTemplate     string            `yaml:"url_template"`
	DefaultCategory string            `yaml:"default_category"`
	Categories      map[string]string `yaml:"categories"`
	Capabilities    []string          `yaml:"capabilities"`
}

type Rules struct {
	Default   Rule            `yaml:"default"`
	Platforms map[string]Rule `yaml:"platforms"`
}

// Default returns the rule table compiled into the binary.
func Default() *Rules {
	r, err := Parse(embeddedRules)
	if err != nil {
		panic(fmt.Sprintf("caption: embedded rules: %v", err))
	}
	return r
}

// Load reads a rule table from path, or the embedded one when path is empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read platform rules: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse platform rules: %w", err)
	}
	if r.Default.MaxCaption <= 0 {
		r.Default.MaxCaption = 2200
	}
	if r.Default.MaxHashtags <= 0 {
		r.Default.MaxHashtags = MaxHashtags
	}
	for name, rule := range r.Platforms {
		if rule.MaxCaption <= 0 {
			return nil, fmt.Errorf("platform %q: max_caption must be positive", name)
		}
		if rule.MaxHashtags <= 0 {
			rule.MaxHashtags = r.Default.MaxHashtags
		}
		r.Platforms[name] = rule
	}
	return &r, nil
}

// For returns the platform's rule, or the default rule for unknown platforms.
func (r *Rules) For(platform string) Rule {
	if rule, ok := r.Platforms[platform]; ok {
		return rule
	}
	return r.Default
}

func (r *Rules) Names() []string {
	names := make([]string, 0, len(r.Platforms))
	for name := range r.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryID maps a category onto the platform's own taxonomy.
func (rule Rule) CategoryID(category string) string {
	if id, ok := rule.Categories[NormalizeCategory(category)]; ok {
		return id
	}
	return rule.DefaultCategory
}
