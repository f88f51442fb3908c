// Package analysis computes exploratory metrics over parsed datasets:
// describe-style statistics, data quality, lexicon sentiment, keyword
// topics, and condensed summaries. All outputs serialize to JSON for
// caching and persistence.
package analysis
