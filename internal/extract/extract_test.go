package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		desc  string
		want  string
	}{
		{"Check https://example.com/a?b=1 now", "Removes http URLs", "check now"},
		{"Visit www.example.com today", "Removes www URLs", "visit today"},
		{"<p>BREAKING <b>News</b></p>", "Strips HTML", "breaking news"},
		{"  many\n\n\tspaces   here ", "Collapses whitespace", "many spaces here"},
		{"Fish &amp; Chips", "Unescapes entities", "fish & chips"},
		{"", "Empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	got := ExtractURLs("See https://a.com/x, and www.b.org. Also https://a.com/x again.")
	want := []string{"https://a.com/x", "www.b.org"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}

	if got := ExtractURLs("no links here"); len(got) != 0 {
		t.Errorf("Expected no URLs, got %v", got)
	}
}

func TestNormalizeMarkdown(t *testing.T) {
	got := NormalizeMarkdown("# Title\n\nSome **bold** text.\n\n- first item\n- second item\n")
	for _, want := range []string{"Title", "Some bold text.", "first item", "second item"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in %q", want, got)
		}
	}
	if strings.ContainsAny(got, "<>*#") {
		t.Errorf("Expected markup to be removed, got %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("## Heading\n\nBody with [a link](https://x.com)."); strings.Contains(got, "](") {
		t.Errorf("Expected markdown link syntax removed, got %q", got)
	}
	if got := NormalizeText("Plain <i>Text</i> Stays Cased"); got != "Plain Text Stays Cased" {
		t.Errorf("Expected case preserved, got %q", got)
	}
}

func TestExtractArticle(t *testing.T) {
	page := `<html>
	<head>
		<title>Site | Headline</title>
		<meta property="og:title" content="Scientists Publish Climate Report">
		<link rel="canonical" href="/news/climate-report">
		<script>var x = "This script text should never appear in the article body";</script>
	</head>
	<body>
		<nav><p>Home | World | Politics | Science | Sports | Weather | More</p></nav>
		<article>
			<h1>Scientists Publish Climate Report</h1>
			<p>The report was published on Monday by an international group of researchers.</p>
			<p>Short caption.</p>
			<p>It concludes that human activity is the main driver of recent warming trends.</p>
		</article>
		<footer><p>Copyright notice and other footer text that is quite long indeed.</p></footer>
	</body>
	</html>`

	got, err := ExtractArticle(page, "https://news.example.com/2024/01/story")
	if err != nil {
		t.Fatalf("ExtractArticle failed: %v", err)
	}

	if got.Title != "Scientists Publish Climate Report" {
		t.Errorf("Unexpected title: %q", got.Title)
	}
	if got.Canonical != "https://news.example.com/news/climate-report" {
		t.Errorf("Unexpected canonical URL: %q", got.Canonical)
	}
	if !strings.Contains(got.Text, "published on Monday") || !strings.Contains(got.Text, "main driver") {
		t.Errorf("Expected article paragraphs, got %q", got.Text)
	}
	for _, unwanted := range []string{"script text", "Short caption", "Copyright", "Politics"} {
		if strings.Contains(got.Text, unwanted) {
			t.Errorf("Did not expect %q in %q", unwanted, got.Text)
		}
	}
}

func TestExtractArticle_FallsBackToVisibleText(t *testing.T) {
	page := `<html><head><title>T</title><style>.x{}</style></head>
	<body><div>Only a div with text</div><span>and a span</span></body></html>`

	got, err := ExtractArticle(page, "")
	if err != nil {
		t.Fatalf("ExtractArticle failed: %v", err)
	}
	if got.Text != "Only a div with text and a span" {
		t.Errorf("Unexpected fallback text: %q", got.Text)
	}
	if got.Title != "T" {
		t.Errorf("Expected <title> fallback, got %q", got.Title)
	}
}

func TestExtractArticle_SiteRule(t *testing.T) {
	page := `<html><head><title>Moon landing - Wikipedia</title></head><body>
	<h1 id="firstHeading">Moon landing</h1>
	<p>A sidebar paragraph outside the content area that is long enough to count.</p>
	<div id="mw-content-text"><div class="mw-parser-output">
		<table class="infobox"><tr><td><p>Infobox paragraph text that should be stripped away.</p></td></tr></table>
		<p>A Moon landing is the arrival of a spacecraft on the surface of the Moon.<sup class="reference">[1]</sup></p>
		<p>The first crewed landing took place in July 1969 during the Apollo 11 mission.</p>
	</div></div>
	</body></html>`

	got, err := ExtractArticle(page, "https://en.wikipedia.org/wiki/Moon_landing")
	if err != nil {
		t.Fatalf("ExtractArticle failed: %v", err)
	}
	if got.Title != "Moon landing" {
		t.Errorf("Expected heading title, got %q", got.Title)
	}
	if !strings.Contains(got.Text, "Apollo 11") {
		t.Errorf("Expected body paragraphs, got %q", got.Text)
	}
	for _, unwanted := range []string{"sidebar", "Infobox", "[1]"} {
		if strings.Contains(got.Text, unwanted) {
			t.Errorf("Did not expect %q in %q", unwanted, got.Text)
		}
	}
}

func TestRuleFor(t *testing.T) {
	tests := []struct {
		url  string
		desc string
		want string
	}{
		{"https://en.wikipedia.org/wiki/Go", "Language subdomain", "wikipedia"},
		{"https://www.bbc.co.uk/news/world-1", "www prefix", "bbc"},
		{"https://apnews.com/article/x", "Bare host", "apnews"},
		{"https://notreuters.com/x", "Lookalike host", "generic"},
		{"", "No URL", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := RuleFor(tt.url).Name; got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClaimExtractor_Extract(t *testing.T) {
	extractor := NewClaimExtractor(5, 0)

	text := "The World Health Organization confirmed that the new vaccine is safe for children. " +
		"Wow. " +
		"The World Health Organization confirmed that the new vaccine is safe for children. " +
		"Officials announced the results at a press conference in Geneva on Tuesday."

	claims, err := extractor.Extract(text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims after dedupe, got %d: %+v", len(claims), claims)
	}
	for _, c := range claims {
		if c.Heuristic != "entity" && c.Heuristic != "verb" {
			t.Errorf("Unexpected heuristic %q", c.Heuristic)
		}
		if strings.HasPrefix(c.Text, "Wow") {
			t.Error("Short sentences must not become claims")
		}
	}
	if claims[1].Sentence <= claims[0].Sentence {
		t.Errorf("Expected claims in text order, got sentences %d and %d", claims[0].Sentence, claims[1].Sentence)
	}
}

func TestClaimExtractor_MaxClaims(t *testing.T) {
	extractor := NewClaimExtractor(5, 1)
	text := "Researchers published the study in a major journal last year. " +
		"The government announced new rules for the energy sector yesterday."

	claims, err := extractor.Extract(text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("Expected 1 claim, got %d", len(claims))
	}
}

func TestClaimExtractor_Empty(t *testing.T) {
	claims, err := NewClaimExtractor(5, 0).Extract("   ")
	if err != nil || len(claims) != 0 {
		t.Errorf("Expected no claims and no error, got %v, %v", claims, err)
	}
}

func TestExtractEntities(t *testing.T) {
	entities, err := ExtractEntities("NASA and the World Health Organization issued a joint statement in Geneva.")
	if err != nil {
		t.Fatalf("ExtractEntities failed: %v", err)
	}

	found := map[string]bool{}
	for _, e := range entities {
		found[e.Text] = true
	}
	if !found["NASA"] {
		t.Errorf("Expected NASA among %+v", entities)
	}
	if !found["World Health Organization"] {
		t.Errorf("Expected World Health Organization among %+v", entities)
	}
}

func TestFallbackEntities(t *testing.T) {
	tests := []struct {
		input string
		desc  string
		want  []string
	}{
		{"The FBI raided the office.", "Acronym is an organization", []string{"FBI:ORG"}},
		{"THIS IS SHOCKING NEWS", "Shouting is not an acronym", nil},
		{"The Supreme Court ruled today.", "Leading article trimmed", []string{"Supreme Court:MISC"}},
		{"Breaking story here.", "Single capitalized word ignored", nil},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var got []string
			for _, e := range fallbackEntities(tt.input) {
				got = append(got, e.Text+":"+e.Label)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\nthree  "); got != 3 {
		t.Errorf("Expected 3 words, got %d", got)
	}
}
