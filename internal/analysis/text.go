package analysis

import (
	"strings"

	"finsight/internal/dataset"
)

var positiveWords = []string{
	"good", "great", "excellent", "positive", "profit", "growth", "increase",
}

var negativeWords = []string{
	"bad", "poor", "negative", "loss", "decline", "decrease", "risk",
}

// TextComplexity holds readability-style metrics for a document.
type TextComplexity struct {
	AvgWordLength     float64 `json:"avg_word_length"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	UniqueWordRatio   float64 `json:"unique_word_ratio"`
}

// SentimentIndicators holds lexicon-based sentiment counts. The ratio
// defaults to 0.5 when neither polarity appears.
type SentimentIndicators struct {
	PositiveIndicators int     `json:"positive_indicators"`
	NegativeIndicators int     `json:"negative_indicators"`
	SentimentRatio     float64 `json:"sentiment_ratio"`
}

// TextMetrics is the full descriptive analysis of a document.
type TextMetrics struct {
	TotalCharacters     int                 `json:"total_characters"`
	TotalWords          int                 `json:"total_words"`
	TotalSentences      int                 `json:"total_sentences"`
	AverageWordLength   float64             `json:"average_word_length"`
	AverageSentenceLen  float64             `json:"average_sentence_length"`
	WordFrequency       map[string]int      `json:"word_frequency"`
	TextComplexity      TextComplexity      `json:"text_complexity"`
	SentimentIndicators SentimentIndicators `json:"sentiment_indicators"`
}

// DescribeText computes the full text metrics for a document.
func DescribeText(doc *dataset.Document) *TextMetrics {
	words := doc.Words()
	sentences := doc.Sentences()

	return &TextMetrics{
		TotalCharacters:     len(doc.Text),
		TotalWords:          len(words),
		TotalSentences:      len(sentences),
		AverageWordLength:   round3(avgWordLength(words)),
		AverageSentenceLen:  round3(avgSentenceLength(sentences)),
		WordFrequency:       topCounts(wordCounts(words), 20),
		TextComplexity:      Complexity(doc),
		SentimentIndicators: Sentiment(doc),
	}
}

// Sentiment counts positive and negative lexicon words in the document.
// Counting is by substring presence, one hit per lexicon entry.
func Sentiment(doc *dataset.Document) SentimentIndicators {
	lower := strings.ToLower(doc.Text)

	positive := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	negative := 0
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}

	ratio := 0.5
	if positive+negative > 0 {
		ratio = round3(float64(positive) / float64(positive+negative))
	}
	return SentimentIndicators{
		PositiveIndicators: positive,
		NegativeIndicators: negative,
		SentimentRatio:     ratio,
	}
}

// Complexity computes the readability metrics of a document.
func Complexity(doc *dataset.Document) TextComplexity {
	words := doc.Words()
	sentences := doc.Sentences()

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	ratio := 0.0
	if len(words) > 0 {
		ratio = round3(float64(len(unique)) / float64(len(words)))
	}

	return TextComplexity{
		AvgWordLength:     round3(avgWordLength(words)),
		AvgSentenceLength: round3(avgSentenceLength(sentences)),
		UniqueWordRatio:   ratio,
	}
}

func avgWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}

func avgSentenceLength(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}
	return float64(total) / float64(len(sentences))
}

func wordCounts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}
