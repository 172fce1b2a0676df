package caption

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHashtags(t *testing.T) {
	got := CleanHashtags([]string{"#Viral!", "ab", "trending_now"}, 20)
	assert.Equal(t, []string{"Viral", "trending_now"}, got)
}

func TestCleanHashtagsDedupAndCap(t *testing.T) {
	got := CleanHashtags([]string{"#humor", "humor", "Humor", "#engraçado", "riso!!"}, 0)
	assert.Equal(t, []string{"humor", "Humor", "engraçado", "riso"}, got)

	many := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		many = append(many, "tag"+strings.Repeat("x", i))
	}
	assert.Len(t, CleanHashtags(many, 20), 20)
	assert.Len(t, CleanHashtags(many, 100), MaxHashtags)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := Truncate(long, 150)
	assert.Equal(t, 150, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", Truncate("short", 150))

	accented := strings.Repeat("ç", 10)
	assert.Equal(t, strings.Repeat("ç", 5)+"...", Truncate(accented, 8))
}

func TestLimitHashtagsKeepsOrder(t *testing.T) {
	assert.Equal(t, []string{"c", "a"}, LimitHashtags([]string{"c", "a", "b"}, 2))
	assert.Equal(t, []string{"c"}, LimitHashtags([]string{"c"}, 5))
}

func TestTikTokFormatKeepsSuffix(t *testing.T) {
	rule := Default().For("tiktok")
	desc := strings.Repeat("Amazing cat doing things ", 20)
	tags := []string{"humor", "engracado", "comedia", "riso", "viral", "trending", "fyp"}

	got := rule.Format(desc, tags)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), 150)
	assert.True(t, strings.HasSuffix(got, "#fyp #viral #foryou"))
}

func TestTikTokFormatShort(t *testing.T) {
	got := Default().For("tiktok").Format("Cat", []string{"humor", "riso"})
	assert.Equal(t, "Cat #humor #riso #fyp #viral #foryou", got)
}

func TestInstagramFormat(t *testing.T) {
	got := Default().For("instagram").Format("Hello", []string{"one", "two"})
	assert.Equal(t, "Hello\n\n#one #two\n\n🔔 Follow for more amazing content!", got)
}

func TestKawaiFormatWrapsDescription(t *testing.T) {
	got := Default().For("kawai").Format("Cute", []string{"kawaii"})
	assert.True(t, strings.HasPrefix(got, "💖 Cute ✨"))
	assert.True(t, strings.HasSuffix(got, "🌸 Follow for more kawaii content! 💕"))
}

func TestYouTubeRules(t *testing.T) {
	rule := Default().For("youtube")
	assert.Equal(t, "23", rule.CategoryID("humor"))
	assert.Equal(t, "23", rule.CategoryID("Comedy"))
	assert.Equal(t, "28", rule.CategoryID("technology"))
	assert.Equal(t, "24", rule.CategoryID("unknown"))
	assert.Equal(t, 100, utf8.RuneCountInString(rule.Title(strings.Repeat("t", 140))))
	assert.Contains(t, rule.Capabilities, "shorts")
}

func TestUnknownPlatformUsesDefault(t *testing.T) {
	rules := Default()
	rule := rules.For("myspace")
	assert.Equal(t, 2200, rule.MaxCaption)
	assert.Equal(t, []string{"instagram", "kawai", "tiktok", "youtube"}, rules.Names())
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := "platforms:\n  tiktok:\n    max_caption: 80\n    layout: inline\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	rules, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, rules.For("tiktok").MaxCaption)
	assert.Equal(t, MaxHashtags, rules.For("tiktok").MaxHashtags)

	_, err = Parse([]byte("platforms:\n  bad:\n    max_hashtags: 3\n"))
	assert.Error(t, err)
}
