package linguistic

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+(\s|$)`)
	wordPattern = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?`)
)

// FleschReadingEase scores text from roughly 0 (very hard) to 100 (very easy).
// Empty text scores 0.
func FleschReadingEase(text string) float64 {
	words := wordPattern.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}

	sentences := len(sentenceEnd.FindAllStringIndex(strings.TrimSpace(text), -1))
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	wps := float64(len(words)) / float64(sentences)
	spw := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wps - 84.6*spw
	return math.Round(score*100) / 100
}

// CountSyllables estimates syllables from vowel groups
func CountSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }))
	if word == "" {
		return 0
	}
	if len(word) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// silent trailing e, except consonant+le ("table")
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if strings.HasSuffix(word, "es") || strings.HasSuffix(word, "ed") {
		stem := word[:len(word)-2]
		if count > 1 && !strings.HasSuffix(stem, "t") && !strings.HasSuffix(stem, "d") &&
			!strings.HasSuffix(stem, "s") && !strings.HasSuffix(stem, "c") && !strings.HasSuffix(stem, "x") {
			count--
		}
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
