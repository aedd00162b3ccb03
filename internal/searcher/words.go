package searcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"

	"github.com/Kylob/Sitemap/internal/storage"
)

// Words reports which words of a search term actually occur in one
// document, for highlighting outside the index. Matching is done on
// porter stems, mirroring the index tokenizer, so "running" finds "runs".
// The returned words are the caller's own, lowercased, in query order.
func (s *Searcher) Words(ctx context.Context, q Querier, term string, docid int64) ([]string, error) {
	var text string
	err := q.QueryRowContext(ctx,
		`SELECT description || ' ' || content || ' ' || title || ' ' || path || ' ' || keywords
		 FROM search WHERE rowid = ?`, docid).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %d: %w", docid, err)
	}

	stems := make(map[string]bool)
	for _, word := range tokenize(text) {
		stems[english.Stem(word, false)] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, word := range tokenize(term) {
		if seen[word] {
			continue
		}
		seen[word] = true
		if stems[english.Stem(word, false)] {
			matched = append(matched, word)
		}
	}
	return matched, nil
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, discarding FTS operators and punctuation along the way.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
