package search

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/1acre-in/message-analytics/pkg/corpus"
	"github.com/1acre-in/message-analytics/pkg/util"
)

// DefaultMaxResults caps result sets when the query asks for nothing
// specific.
const DefaultMaxResults = 100

// Engine executes queries against a corpus snapshot. Terms are matched
// concurrently and intersected: a record must satisfy every term.
type Engine struct {
	log        zerolog.Logger
	maxResults int
}

// NewEngine creates an engine with the given result ceiling; values
// <= 0 fall back to DefaultMaxResults.
func NewEngine(log zerolog.Logger, maxResults int) *Engine {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Engine{log: log, maxResults: maxResults}
}

// Search runs q against c. An empty term list returns the whole
// (filtered) corpus in the requested order.
func (e *Engine) Search(ctx context.Context, c *corpus.Corpus, q Query) (*Response, error) {
	start := time.Now()
	q = e.normalizeQuery(q)

	candidates := e.filter(c, q)

	if len(q.Terms) > 0 {
		matched, err := e.matchTerms(ctx, c, q.Terms, candidates)
		if err != nil {
			return nil, err
		}
		candidates = matched
	}

	e.sortCandidates(c, candidates, q.SortBy)
	total := len(candidates)
	if len(candidates) > q.MaxResults {
		candidates = candidates[:q.MaxResults]
	}

	out := &Response{
		Terms:      q.Terms,
		SortBy:     q.SortBy,
		MaxResults: q.MaxResults,
		TookMs:     time.Since(start).Milliseconds(),
		Total:      total,
	}
	for _, idx := range candidates {
		out.Results = append(out.Results, c.Record(idx))
	}
	return out, nil
}

// normalizeQuery applies defaults and clamps.
func (e *Engine) normalizeQuery(q Query) Query {
	terms := q.Terms[:0:0]
	for _, t := range q.Terms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	q.Terms = terms

	if q.MinMessages < 1 {
		q.MinMessages = 1
	}
	if q.SortBy == "" {
		q.SortBy = SortRecent
	}
	if q.MaxResults <= 0 || q.MaxResults > e.maxResults {
		q.MaxResults = e.maxResults
	}
	return q
}

// filter returns the corpus indices passing the date range and minimum
// message count, in corpus order.
func (e *Engine) filter(c *corpus.Corpus, q Query) []int {
	var out []int
	for i := 0; i < c.Len(); i++ {
		r := c.Record(i)
		if r.MessageCount < q.MinMessages {
			continue
		}
		if q.DateRange != nil && !inDateRange(r.FirstContact, q.DateRange) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// inDateRange compares the date component of ts against the range,
// inclusive on both ends. Zero bounds are open.
func inDateRange(ts time.Time, dr *DateRange) bool {
	day := ts.Truncate(24 * time.Hour)
	if !dr.Start.IsZero() && day.Before(dr.Start.Truncate(24*time.Hour)) {
		return false
	}
	if !dr.End.IsZero() && day.After(dr.End.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// matchTerms runs one matcher per term and intersects the results. A
// term whose matcher fails contributes an empty set: the query degrades
// instead of erroring.
func (e *Engine) matchTerms(ctx context.Context, c *corpus.Corpus, terms []string, candidates []int) ([]int, error) {
	type termResult struct {
		matches map[int]struct{}
	}
	results := make(chan termResult, len(terms))

	for _, term := range terms {
		go func(term string) {
			matches, err := matchTerm(ctx, c, term, candidates)
			if err != nil {
				e.log.Warn().Err(err).
					Str("term", util.Truncate(term, 64)).
					Msg("Term matching failed, treating as no matches")
				matches = nil
			}
			results <- termResult{matches: matches}
		}(term)
	}

	var intersection map[int]struct{}
	for range terms {
		select {
		case res := <-results:
			if intersection == nil {
				intersection = res.matches
				if intersection == nil {
					intersection = map[int]struct{}{}
				}
				continue
			}
			for idx := range intersection {
				if _, ok := res.matches[idx]; !ok {
					delete(intersection, idx)
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(intersection))
	for _, idx := range candidates {
		if _, ok := intersection[idx]; ok {
			out = append(out, idx)
		}
	}
	return out, nil
}

// matchTerm finds the candidate indices matching one term: a whole-word
// match in the normalized conversation text, or a substring match on
// the profile name or ID.
func matchTerm(ctx context.Context, c *corpus.Corpus, term string, candidates []int) (map[int]struct{}, error) {
	normalized := corpus.NormalizeText(term)
	if normalized == "" {
		return map[int]struct{}{}, nil
	}

	wordRe, err := regexp.Compile(`\b` + regexp.QuoteMeta(normalized) + `\b`)
	if err != nil {
		return nil, err
	}
	lowered := strings.ToLower(term)

	matches := make(map[int]struct{})
	for n, idx := range candidates {
		if n%256 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		r := c.Record(idx)
		if wordRe.MatchString(c.NormalizedText(idx)) ||
			strings.Contains(strings.ToLower(r.ProfileName), lowered) ||
			strings.Contains(strings.ToLower(r.ProfileID), lowered) {
			matches[idx] = struct{}{}
		}
	}
	return matches, nil
}

// sortCandidates orders indices in place. Sorting is stable so records
// tied on the key keep their corpus (newest-first) order.
func (e *Engine) sortCandidates(c *corpus.Corpus, candidates []int, by SortBy) {
	switch by {
	case SortOldest:
		sort.SliceStable(candidates, func(i, j int) bool {
			return c.Record(candidates[i]).FirstContact.Before(c.Record(candidates[j]).FirstContact)
		})
	case SortMostMessages:
		sort.SliceStable(candidates, func(i, j int) bool {
			return c.Record(candidates[i]).MessageCount > c.Record(candidates[j]).MessageCount
		})
	case SortLongestDuration:
		sort.SliceStable(candidates, func(i, j int) bool {
			return c.Record(candidates[i]).DurationDays > c.Record(candidates[j]).DurationDays
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			return c.Record(candidates[i]).LastContact.After(c.Record(candidates[j]).LastContact)
		})
	}
}
