package domain

import "strings"

// Source is a merchant or bank identity. Aliases are the raw spellings
// scrapers produce for it; Scopes lists the presentation surfaces its
// campaigns may appear on.
type Source struct {
	CanonicalName string
	Aliases       []string
	Hidden        bool
	Scopes        []string
}

// NormalizeKey folds a raw source name to its lookup key: trimmed,
// lowercased, internal whitespace runs collapsed, and Turkish letter
// variants mapped to their unaccented base forms. Two raw strings that
// fold to the same key always resolve to the same source.
func NormalizeKey(raw string) string {
	folded := strings.Map(foldRune, raw)
	return strings.Join(strings.Fields(folded), " ")
}

func foldRune(r rune) rune {
	switch r {
	case 'Ç', 'ç':
		return 'c'
	case 'Ğ', 'ğ':
		return 'g'
	case 'İ', 'I', 'ı':
		return 'i'
	case 'Ö', 'ö':
		return 'o'
	case 'Ş', 'ş':
		return 's'
	case 'Ü', 'ü':
		return 'u'
	case 'Â', 'â':
		return 'a'
	case 'Î', 'î':
		return 'i'
	case 'Û', 'û':
		return 'u'
	}
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// SourceIndex is an immutable snapshot of the alias table and hidden-key
// set. It is built once (at startup or on an explicit reload) and passed
// into the pipeline as a plain dependency; lookups are pure functions of
// the snapshot.
type SourceIndex struct {
	byKey     map[string]Source
	hiddenKey map[string]struct{}
	sources   []Source
}

// NewSourceIndex builds a snapshot from the given sources. Every
// source's canonical name registers itself as an alias, so canonical
// spellings resolve to themselves and Canonicalize stays idempotent.
// hiddenKeys hides additional raw names that are not aliases of any
// configured source.
func NewSourceIndex(sources []Source, hiddenKeys ...string) *SourceIndex {
	idx := &SourceIndex{
		byKey:     make(map[string]Source),
		hiddenKey: make(map[string]struct{}),
		sources:   sources,
	}
	for _, s := range sources {
		keys := append([]string{s.CanonicalName}, s.Aliases...)
		for _, a := range keys {
			k := NormalizeKey(a)
			if k == "" {
				continue
			}
			idx.byKey[k] = s
			if s.Hidden {
				idx.hiddenKey[k] = struct{}{}
			}
		}
	}
	for _, h := range hiddenKeys {
		if k := NormalizeKey(h); k != "" {
			idx.hiddenKey[k] = struct{}{}
		}
	}
	return idx
}

// Canonicalize maps a raw source name to its canonical display name.
// Unknown names pass through unchanged; an unrecognized source is never
// a reason to reject a campaign.
func (idx *SourceIndex) Canonicalize(raw string) string {
	if s, ok := idx.byKey[NormalizeKey(raw)]; ok {
		return s.CanonicalName
	}
	return raw
}

// IsHidden reports whether the raw name folds to a hidden source key.
func (idx *SourceIndex) IsHidden(raw string) bool {
	_, ok := idx.hiddenKey[NormalizeKey(raw)]
	return ok
}

// Lookup returns the source a raw name resolves to, if any.
func (idx *SourceIndex) Lookup(raw string) (Source, bool) {
	s, ok := idx.byKey[NormalizeKey(raw)]
	return s, ok
}

// Sources returns the snapshot's sources in their original order.
func (idx *SourceIndex) Sources() []Source {
	return idx.sources
}
