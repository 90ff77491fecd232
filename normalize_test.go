package headlines

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type periodSplitter struct{}

func (periodSplitter) Sentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s+".")
		}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    NormalizeOptions
		title   string
		content string
		want    string
	}{
		{
			name:    "title repeated before content",
			opts:    NormalizeOptions{TitleRepeat: 2},
			title:   "Central bank raises rates",
			content: "Rates went up.",
			want:    "Central bank raises rates Central bank raises rates Rates went up.",
		},
		{
			name:    "content truncated to first sentences",
			opts:    NormalizeOptions{TitleRepeat: 1, MaxSentences: 2},
			title:   "Storm",
			content: "The storm hit at dawn. Power is out. Schools are closed.",
			want:    "Storm The storm hit at dawn. Power is out.",
		},
		{
			name:    "fewer sentences than the limit",
			opts:    NormalizeOptions{TitleRepeat: 1, MaxSentences: 5},
			title:   "Storm",
			content: "The storm hit at dawn.",
			want:    "Storm The storm hit at dawn.",
		},
		{
			name:    "empty title",
			opts:    NormalizeOptions{TitleRepeat: 3},
			content: "  Only content.  ",
			want:    "Only content.",
		},
		{
			name:  "empty content",
			opts:  NormalizeOptions{TitleRepeat: 2, MaxSentences: 3},
			title: "Headline",
			want:  "Headline Headline",
		},
		{
			name: "both empty",
			opts: NormalizeOptions{TitleRepeat: 2},
			want: "",
		},
		{
			name:    "title repeat below one is treated as one",
			opts:    NormalizeOptions{TitleRepeat: 0},
			title:   "Headline",
			content: "Body.",
			want:    "Headline Body.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.opts, nil)
			assert.Equal(t, tt.want, n.Normalize(tt.title, tt.content))
		})
	}
}

func TestNormalizeUsesInjectedSplitter(t *testing.T) {
	n := NewNormalizer(NormalizeOptions{TitleRepeat: 1, MaxSentences: 1}, periodSplitter{})
	assert.Equal(t, "T one.", n.Normalize("T", "one. two. three."))
}

func TestUAX29Splitter(t *testing.T) {
	got := UAX29Splitter{}.Sentences("Hello there. How are you? Fine!")
	assert.Equal(t, []string{"Hello there.", "How are you?", "Fine!"}, got)
}

func TestNormalizeArticlesKeepsAlignment(t *testing.T) {
	n := NewNormalizer(NormalizeOptions{TitleRepeat: 1}, nil)
	texts := n.NormalizeArticles([]Article{
		{Title: "A", Content: "a."},
		{},
		{Title: "C"},
	})
	assert.Equal(t, []string{"A a.", "", "C"}, texts)
}
