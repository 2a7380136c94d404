// Package search provides a deterministic, concurrency-safe in-memory search
// index over forum threads. Documents are added and removed as threads are
// created, and queried with Jaccard similarity between the query token set
// and each thread's token set: score = |Q ∩ D| / |Q ∪ D|.
//
// The package does not log; callers decide what to report.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Result is a ranked thread id with its similarity score.
type Result struct {
	ThreadID int64
	Score    float64
}

// Index is the contract the thread service depends on.
type Index interface {
	Add(id int64, title, body string)
	Remove(id int64)
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords   map[string]struct{}
	maxDocs     int
	titleWeight int
}

func defaultConfig() config {
	return config{
		stopwords:   defaultStopwords(),
		maxDocs:     0,
		titleWeight: 2,
	}
}

// WithStopwords replaces the default stop-word list. An empty list disables
// stop-word removal.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) == 0 {
			c.stopwords = nil
			return
		}
		c.stopwords = m
	}
}

// WithMaxDocs caps the number of indexed threads. When full, Add evicts the
// lowest id (oldest snowflake).
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithTitleWeight makes title-token matches count n times. n < 1 is ignored.
func WithTitleWeight(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.titleWeight = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	title  map[string]struct{}
	tokens map[string]struct{}
}

type threadIndex struct {
	cfg  config
	mu   sync.RWMutex
	docs map[int64]doc
}

// NewThreadIndex returns an empty index.
func NewThreadIndex(opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &threadIndex{cfg: cfg, docs: make(map[int64]doc)}
}

// Add indexes (or re-indexes) a thread. Body is expected to be markdown; it
// is flattened with PlainText first.
func (i *threadIndex) Add(id int64, title, body string) {
	tt := tokenize(title, i.cfg.stopwords)
	all := tokenize(title+"\n"+PlainText(body), i.cfg.stopwords)
	if len(all) == 0 {
		i.Remove(id)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.docs[id]; !exists && i.cfg.maxDocs > 0 && len(i.docs) >= i.cfg.maxDocs {
		oldest := int64(0)
		first := true
		for k := range i.docs {
			if first || k < oldest {
				oldest, first = k, false
			}
		}
		if id < oldest {
			return
		}
		delete(i.docs, oldest)
	}
	i.docs[id] = doc{title: tt, tokens: all}
}

func (i *threadIndex) Remove(id int64) {
	i.mu.Lock()
	delete(i.docs, id)
	i.mu.Unlock()
}

func (i *threadIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// TopK returns up to k best-matching thread ids. Ties break on the newer
// thread (higher id) so results are deterministic.
func (i *threadIndex) TopK(q string, k int) []Result {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	i.mu.RLock()
	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for id, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		score := float64(over) / union
		if tw := i.cfg.titleWeight; tw > 1 {
			score *= 1 + float64((tw-1)*overlap(qTokens, d.title))/float64(qLen)
		}
		buf = append(buf, Result{ThreadID: id, Score: score})
	}
	i.mu.RUnlock()

	if len(buf) == 0 {
		return nil
	}
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].ThreadID > buf[b].ThreadID
	})
	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"the", "a", "an", "and", "or", "of", "to", "in", "is", "are", "for", "on",
		"with", "by", "from", "at", "as", "that", "this", "it", "be", "was", "were",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
