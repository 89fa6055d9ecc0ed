package canchannels

import "strings"

// Recommender finds related posts by fuzzy multi-keyword matching.
type Recommender struct {
	store *Store
	log   *Logger
}

// NewRecommender wires a Recommender over the given store.
func NewRecommender(store *Store, log *Logger) *Recommender {
	return &Recommender{store: store, log: log.With("component", "recommend")}
}

// Recommend returns up to limit posts whose keyword field contains any token
// of the comma-delimited keywords string, newest first, excluding excludeID.
// Matching is case-insensitive substring containment per token, so a post
// tagged "technology" matches the token "tech". An empty token set yields an
// empty result; the most-recent-N fallback is the caller's policy.
func (r *Recommender) Recommend(keywords, excludeID string, limit int) []PostView {
	tokens := SplitKeywords(keywords)
	if len(tokens) == 0 {
		return []PostView{}
	}
	posts, err := r.store.MatchPostsByKeywords(tokens, excludeID, limit)
	if err != nil {
		r.log.Warn("keyword match failed", "keywords", keywords, "error", err)
		return []PostView{}
	}
	return toViews(posts)
}

// SplitKeywords splits a comma-delimited keyword string into trimmed,
// lowercased, non-empty tokens.
func SplitKeywords(keywords string) []string {
	var tokens []string
	for _, part := range strings.Split(keywords, ",") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
