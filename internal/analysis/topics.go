package analysis

import (
	"sort"
	"strings"

	"finsight/internal/dataset"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"which": {}, "will": {}, "with": {}, "we": {}, "not": {}, "their": {},
	"they": {}, "than": {}, "these": {}, "those": {}, "may": {}, "had": {},
	"been": {}, "but": {}, "also": {}, "other": {}, "such": {}, "any": {},
}

// Topic is one keyword cluster: a stem, the surface forms that mapped
// to it, and the total occurrence count.
type Topic struct {
	Keyword string   `json:"keyword"`
	Terms   []string `json:"terms"`
	Count   int      `json:"count"`
}

// TopicMetrics is the output of the topics operation.
type TopicMetrics struct {
	Topics     []Topic `json:"topics"`
	TotalWords int     `json:"total_words"`
}

// ExtractTopics clusters the document's words by stem, excluding
// stopwords and tokens shorter than three characters, and returns the
// ten largest clusters.
func ExtractTopics(doc *dataset.Document) *TopicMetrics {
	words := doc.Words()

	type cluster struct {
		count int
		terms map[string]struct{}
	}
	clusters := make(map[string]*cluster)

	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		s := stem(w)
		c, ok := clusters[s]
		if !ok {
			c = &cluster{terms: make(map[string]struct{})}
			clusters[s] = c
		}
		c.count++
		c.terms[w] = struct{}{}
	}

	topics := make([]Topic, 0, len(clusters))
	for s, c := range clusters {
		terms := make([]string, 0, len(c.terms))
		for t := range c.terms {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		topics = append(topics, Topic{Keyword: s, Terms: terms, Count: c.count})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Keyword < topics[j].Keyword
	})
	if len(topics) > 10 {
		topics = topics[:10]
	}

	return &TopicMetrics{Topics: topics, TotalWords: len(words)}
}

// stem strips common English suffixes. It is deliberately crude; the
// goal is grouping inflections, not linguistic correctness.
func stem(w string) string {
	for _, suffix := range []string{"ations", "ation", "ings", "ing", "ed"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 3 {
			return w[:len(w)-len(suffix)]
		}
	}
	if strings.HasSuffix(w, "ies") && len(w) >= 5 {
		return w[:len(w)-3] + "y"
	}
	if strings.HasSuffix(w, "es") {
		base := w[:len(w)-2]
		if len(base) >= 3 && sibilantEnd(base) {
			return base
		}
	}
	if strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) >= 4 {
		return w[:len(w)-1]
	}
	return w
}

func sibilantEnd(w string) bool {
	return strings.HasSuffix(w, "s") || strings.HasSuffix(w, "x") ||
		strings.HasSuffix(w, "z") || strings.HasSuffix(w, "ch") ||
		strings.HasSuffix(w, "sh")
}
