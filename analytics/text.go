package analytics

import (
	"sort"
	"strings"
	"unicode"
)

// Polarity is the outcome of classifying one free-text answer.
type Polarity int

const (
	Neutral Polarity = iota
	Positive
	Negative
)

// Sentiment classifies free text. The default implementation is a
// keyword tally — explicitly a coarse heuristic, kept behind this
// interface so a real classifier can replace it without touching the
// aggregation below.
type Sentiment interface {
	Classify(text string) Polarity
}

type keywordSentiment struct {
	positive map[string]bool
	negative map[string]bool
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "love", "best", "perfect",
	"fantastic", "wonderful", "awesome", "friendly", "helpful", "fast",
	"easy", "recommend", "happy", "delicious", "tasty",
}

var negativeWords = []string{
	"bad", "poor", "terrible", "awful", "hate", "worst", "horrible",
	"slow", "rude", "expensive", "disappointing", "disappointed", "cold",
	"dirty", "never", "problem", "wrong", "late",
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "is": true, "are": true, "was": true, "were": true,
	"i": true, "it": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "with": true, "that": true, "this": true,
	"my": true, "we": true, "you": true, "they": true, "at": true,
	"be": true, "very": true, "so": true, "not": true, "as": true,
}

// NewKeywordSentiment builds the default heuristic classifier.
func NewKeywordSentiment() Sentiment {
	s := keywordSentiment{
		positive: make(map[string]bool, len(positiveWords)),
		negative: make(map[string]bool, len(negativeWords)),
	}
	for _, w := range positiveWords {
		s.positive[w] = true
	}
	for _, w := range negativeWords {
		s.negative[w] = true
	}
	return s
}

func (s keywordSentiment) Classify(text string) Polarity {
	pos, neg := 0, 0
	for _, w := range tokenize(text) {
		if s.positive[w] {
			pos++
		}
		if s.negative[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}

type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type SentimentTally struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type TextReport struct {
	Responses  int            `json:"responses"`
	MeanLength float64        `json:"meanLength"`
	WordCount  int            `json:"wordCount"`
	Keywords   []KeywordCount `json:"keywords"`
	Sentiment  SentimentTally `json:"sentiment"`
}

// Text aggregates free-text answers. A nil classifier falls back to
// the keyword heuristic.
func Text(texts []string, classifier Sentiment) (rep TextReport) {
	if classifier == nil {
		classifier = NewKeywordSentiment()
	}

	totalLen := 0
	freqs := map[string]int{}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		rep.Responses++
		totalLen += len(t)

		for _, w := range tokenize(t) {
			rep.WordCount++
			if !stopWords[w] && len(w) > 1 {
				freqs[w]++
			}
		}

		switch classifier.Classify(t) {
		case Positive:
			rep.Sentiment.Positive++
		case Negative:
			rep.Sentiment.Negative++
		default:
			rep.Sentiment.Neutral++
		}
	}

	if rep.Responses > 0 {
		rep.MeanLength = float64(totalLen) / float64(rep.Responses)
	}

	rep.Keywords = make([]KeywordCount, 0, len(freqs))
	for w, n := range freqs {
		rep.Keywords = append(rep.Keywords, KeywordCount{Word: w, Count: n})
	}
	sort.Slice(rep.Keywords, func(i, j int) bool {
		if rep.Keywords[i].Count != rep.Keywords[j].Count {
			return rep.Keywords[i].Count > rep.Keywords[j].Count
		}
		return rep.Keywords[i].Word < rep.Keywords[j].Word
	})
	return
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
