package tags

import (
	"strings"
)

const (
	// MaxSuggestions is the maximum number of suggestions returned (the number of options
	// an external select can show)
	MaxSuggestions = 25

	// CorrectionThreshold is the minimum similarity for a fuzzy match to be offered as a correction
	CorrectionThreshold = 0.8

	// HintThreshold is the minimum similarity for a fuzzy match to be mentioned at all
	HintThreshold = 0.5
)

// MatchKind is the tier at which a suggestion matched
type MatchKind int

// Match tiers, in priority order
const (
	MatchPrefix MatchKind = iota
	MatchSubstring
	MatchCategory
)

// String returns the name of the match kind
func (k MatchKind) String() string {
	switch k {
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	case MatchCategory:
		return "category"
	}

	return "unknown"
}

// Suggestion is a tag matching a partial input
type Suggestion struct {
	Tag  *Tag
	Kind MatchKind
}

// Suggest ranks the tags of the catalogue matching the input. Tags whose name (or an alias) starts
// with the input come first, then tags with a name (or alias) containing the input and finally tags
// of a category starting with the input. Each tier is ordered by category and name and a tag only
// appears once, at its highest tier. Locale variants count as one tag, shown in the preferred
// locale. The result holds at most limit suggestions, capped to MaxSuggestions
func Suggest(c *Catalogue, input string, locale string, limit int) (suggestions []Suggestion) {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}

	in := strings.ToLower(strings.TrimSpace(input))
	tiers := make([][]Suggestion, 3)

	for _, lt := range c.logical {
		kind, ok := matchKind(lt, in)
		if !ok {
			continue
		}

		tiers[kind] = append(tiers[kind], Suggestion{Tag: c.variant(lt, locale), Kind: kind})
	}

	suggestions = make([]Suggestion, 0, limit)
	for _, tier := range tiers {
		for _, s := range tier {
			if len(suggestions) == limit {
				return suggestions
			}

			suggestions = append(suggestions, s)
		}
	}

	return suggestions
}

func matchKind(lt logicalTag, in string) (kind MatchKind, ok bool) {
	names := append([]string{strings.ToLower(lt.name)}, lt.aliases...)

	for _, n := range names {
		if strings.HasPrefix(n, in) {
			return MatchPrefix, true
		}
	}

	for _, n := range names {
		if strings.Contains(n, in) {
			return MatchSubstring, true
		}
	}

	if strings.HasPrefix(strings.ToLower(lt.category), in) {
		return MatchCategory, true
	}

	return kind, false
}

// Resolution is the outcome of resolving a query to a tag
type Resolution struct {
	// Tag is set when the query matched a tag exactly
	Tag *Tag

	// Candidate is the closest tag when there's no exact match and it is similar enough to
	// be worth mentioning
	Candidate *Tag
	Score     float64
}

// Found returns true if the query matched a tag exactly
func (r Resolution) Found() bool {
	return r.Tag != nil
}

// Correction returns true if the candidate is close enough to be offered as a correction
func (r Resolution) Correction() bool {
	return r.Tag == nil && r.Candidate != nil && r.Score >= CorrectionThreshold
}

// Hint returns true if the candidate should be mentioned without being offered as a correction
func (r Resolution) Hint() bool {
	return r.Tag == nil && r.Candidate != nil && r.Score >= HintThreshold && r.Score < CorrectionThreshold
}

// Resolve resolves a query, either a compound identifier (category.name) or a bare name, to a
// tag. A query naming a tag or one of its aliases exactly wins outright. A bare name wins only
// when a single tag has it as its name or, failing that, as one of its aliases. Otherwise, the
// closest tag is returned as a candidate when its similarity reaches HintThreshold
func Resolve(c *Catalogue, query string, locale string) (r Resolution) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r
	}

	category, name, compound := strings.Cut(q, ".")
	if compound {
		if lt, ok := c.find(category, name); ok {
			return Resolution{Tag: c.variant(lt, locale), Score: 1}
		}
	} else {
		matches := c.matching(func(lt logicalTag) bool { return strings.ToLower(lt.name) == q })
		if len(matches) == 0 {
			matches = c.matching(func(lt logicalTag) bool { return contains(lt.aliases, q) })
		}

		if len(matches) == 1 {
			return Resolution{Tag: c.variant(matches[0], locale), Score: 1}
		}
	}

	var best *logicalTag
	for i := range c.logical {
		lt := &c.logical[i]

		score := bestSimilarity(lt, q, compound)
		if score > r.Score {
			r.Score = score
			best = lt
		}
	}

	if best == nil || r.Score < HintThreshold {
		return Resolution{}
	}

	r.Candidate = c.variant(*best, locale)
	return r
}

// bestSimilarity returns the similarity of the closest of a tag's name and aliases to the query.
// Compound queries are compared to compound identifiers
func bestSimilarity(lt *logicalTag, q string, compound bool) (best float64) {
	names := append([]string{strings.ToLower(lt.name)}, lt.aliases...)

	for _, n := range names {
		candidate := n
		if compound {
			candidate = strings.ToLower(lt.category) + "." + n
		}

		if s := similarity(q, candidate); s > best {
			best = s
		}
	}

	return best
}

// matching returns the tags satisfying the predicate, in catalogue order
func (c *Catalogue) matching(pred func(lt logicalTag) bool) (matches []logicalTag) {
	for _, lt := range c.logical {
		if pred(lt) {
			matches = append(matches, lt)
		}
	}

	return matches
}
