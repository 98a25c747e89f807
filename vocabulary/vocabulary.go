// Package vocabulary provides domain keyword extraction strategies.
//
// Keyword extraction is deliberately lexical: tokenize on word boundaries,
// drop stop words, keep tokens that appear in a domain term set or match
// domain-significant suffix morphology. Swapping domains swaps the
// configuration, never the algorithm.
package vocabulary

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// wordRe matches word tokens, allowing internal hyphens and apostrophes.
var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9'-]*`)

// defaultStopWords is the shared minimal stop-word list.
var defaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "can", "do", "does",
	"for", "from", "given", "has", "have", "how", "in", "into", "involving",
	"is", "it", "its", "of", "on", "or", "should", "that", "the", "then",
	"this", "to", "was", "what", "when", "where", "which", "who", "why",
	"will", "with",
}

// Config configures a domain extractor.
type Config struct {
	// Domain names the vocabulary (e.g. "pm", "clinical"). Empty for the
	// generic extractor.
	Domain string

	// StopWords overrides the default stop-word list when non-empty.
	StopWords []string

	// Terms is the domain vocabulary set.
	Terms []string

	// Suffixes lists domain-significant suffix morphology.
	Suffixes []string

	// MinTokenLength, when positive, keeps any non-stop-word token of at
	// least this length regardless of terms and suffixes. Used by the
	// generic extractor; domain extractors normally leave it zero.
	MinTokenLength int
}

// Extractor extracts question keywords for one domain.
type Extractor struct {
	domain   string
	stop     map[string]bool
	terms    map[string]bool
	suffixes []string
	minLen   int
}

// New creates an extractor from the given configuration.
func New(cfg Config) *Extractor {
	stopWords := cfg.StopWords
	if len(stopWords) == 0 {
		stopWords = defaultStopWords
	}

	e := &Extractor{
		domain:   cfg.Domain,
		stop:     make(map[string]bool, len(stopWords)),
		terms:    make(map[string]bool, len(cfg.Terms)),
		suffixes: append([]string(nil), cfg.Suffixes...),
		minLen:   cfg.MinTokenLength,
	}
	for _, w := range stopWords {
		e.stop[strings.ToLower(w)] = true
	}
	for _, term := range cfg.Terms {
		e.terms[strings.ToLower(term)] = true
	}
	return e
}

// Default returns the generic extractor: stop words dropped, any remaining
// token of four or more characters kept.
func Default() *Extractor {
	return New(Config{MinTokenLength: 4})
}

// Domain returns the extractor's domain name.
func (e *Extractor) Domain() string {
	return e.domain
}

// Keywords extracts ordered, deduplicated keywords from text.
// A text of nothing but stop words yields an empty slice, never an error.
func (e *Extractor) Keywords(text string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, token := range wordRe.FindAllString(text, -1) {
		tok := strings.ToLower(token)
		if e.stop[tok] || seen[tok] {
			continue
		}
		if !e.keep(tok) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func (e *Extractor) keep(token string) bool {
	if e.terms[token] {
		return true
	}
	for _, suffix := range e.suffixes {
		if len(token) > len(suffix) && strings.HasSuffix(token, suffix) {
			return true
		}
	}
	return e.minLen > 0 && len(token) >= e.minLen
}

// Registry of domain extractors, populated by domain packages in init().
var (
	regMu    sync.RWMutex
	registry = make(map[string]*Extractor)
)

// Register adds a domain extractor to the registry, replacing any previous
// extractor for the same domain.
func Register(e *Extractor) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[e.domain] = e
}

// Lookup returns the extractor registered for a domain.
func Lookup(domain string) (*Extractor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	e, ok := registry[domain]
	return e, ok
}

// Domains returns the sorted list of registered domain names.
func Domains() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for d := range registry {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
