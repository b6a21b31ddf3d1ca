package search

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/BrainPreserve/supplements/internal/dataset"
)

// SortMode selects the result ordering.
type SortMode string

const (
	SortEvidence SortMode = "evidence"
	SortAlpha    SortMode = "az"
)

// EvidenceFilter restricts results to one tier, or none with EvidenceAll.
type EvidenceFilter string

const (
	EvidenceAll         EvidenceFilter = "all"
	EvidenceStrong      EvidenceFilter = EvidenceFilter(TierStrong)
	EvidenceModerate    EvidenceFilter = EvidenceFilter(TierModerate)
	EvidencePreliminary EvidenceFilter = EvidenceFilter(TierPreliminary)
)

// ParseSortMode accepts "evidence" or "az"; anything else is SortEvidence.
func ParseSortMode(s string) SortMode {
	if SortMode(strings.ToLower(strings.TrimSpace(s))) == SortAlpha {
		return SortAlpha
	}
	return SortEvidence
}

// ParseEvidenceFilter accepts a tier name or "all"; anything else is
// EvidenceAll.
func ParseEvidenceFilter(s string) EvidenceFilter {
	switch f := EvidenceFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case EvidenceStrong, EvidenceModerate, EvidencePreliminary:
		return f
	default:
		return EvidenceAll
	}
}

// Query is one search invocation.
type Query struct {
	Text     string
	Flags    []string
	Evidence EvidenceFilter
	Sort     SortMode
}

// NewQuery normalizes raw user input into a Query.
func NewQuery(raw string, flags []string, evidence, sortMode string) Query {
	var fs []string
	for _, f := range flags {
		if f = strings.TrimSpace(f); f != "" {
			fs = append(fs, f)
		}
	}
	return Query{
		Text:     strings.ToLower(strings.TrimSpace(raw)),
		Flags:    fs,
		Evidence: ParseEvidenceFilter(evidence),
		Sort:     ParseSortMode(sortMode),
	}
}

// IsBlank reports a query with no text and no flags. Ranking still returns
// every record for it; callers decide whether to show anything.
func (q Query) IsBlank() bool {
	return q.Text == "" && len(q.Flags) == 0
}

// Options are the fixed ranking settings.
type Options struct {
	// MechanismMatch enables substring matching on the mechanism column.
	MechanismMatch bool
}

// Result is a ranked record with its derived display values.
type Result struct {
	Record    dataset.Record
	PrettyKey string
	Evidence  Evidence
	Cost      Cost
}

// NewResult classifies r.
func NewResult(r dataset.Record) Result {
	return Result{
		Record:    r,
		PrettyKey: PrettifyKey(r.Key()),
		Evidence:  ClassifyEvidence(r.Evidence()),
		Cost:      ClassifyCost(r.Cost()),
	}
}

// Rank filters records by text and flags, applies the evidence filter and
// sorts. The order of the returned slice is part of the contract.
func Rank(records []dataset.Record, q Query, opts Options) []Result {
	m := NewMatcher(q, opts)
	var out []Result
	for _, r := range records {
		if !FlagsSatisfied(r, q.Flags) {
			continue
		}
		if res, ok := keep(r, m, q); ok {
			out = append(out, res)
		}
	}
	sortResults(out, q.Sort)
	return out
}

func rankCandidates(records []dataset.Record, candidates *roaring.Bitmap, q Query, opts Options) []Result {
	m := NewMatcher(q, opts)
	out := make([]Result, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		if res, ok := keep(records[it.Next()], m, q); ok {
			out = append(out, res)
		}
	}
	sortResults(out, q.Sort)
	return out
}

func keep(r dataset.Record, m *Matcher, q Query) (Result, bool) {
	if !m.Match(r) {
		return Result{}, false
	}
	res := NewResult(r)
	if q.Evidence != "" && q.Evidence != EvidenceAll && Tier(q.Evidence) != res.Evidence.Tier {
		return Result{}, false
	}
	return res, true
}

func sortResults(results []Result, mode SortMode) {
	// collate.Collator is not safe for concurrent use.
	c := collate.New(language.English)

	if mode == SortAlpha {
		sort.SliceStable(results, func(i, j int) bool {
			return c.CompareString(results[i].PrettyKey, results[j].PrettyKey) < 0
		})
		return
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Evidence.Score != results[j].Evidence.Score {
			return results[i].Evidence.Score > results[j].Evidence.Score
		}
		return c.CompareString(results[i].PrettyKey, results[j].PrettyKey) < 0
	})
}

// PrettyKeys returns the display keys of results in order.
func PrettyKeys(results []Result) []string {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.PrettyKey
	}
	return keys
}

// Engine ranks queries against one loaded dataset using a prebuilt flag
// index. It is safe for concurrent use.
type Engine struct {
	store   *dataset.Store
	records []dataset.Record
	index   *FlagIndex
	opts    Options
}

// NewEngine indexes the configured flag columns of store.
func NewEngine(store *dataset.Store, opts Options) *Engine {
	records := store.Records()
	var flagCols []string
	if s := store.Schema(); s != nil {
		flagCols = s.FlagCols
	}
	return &Engine{
		store:   store,
		records: records,
		index:   NewFlagIndex(records, flagCols),
		opts:    opts,
	}
}

// Search ranks q over the dataset.
func (e *Engine) Search(q Query) []Result {
	return rankCandidates(e.records, e.index.Candidates(q.Flags), q, e.opts)
}

// Lookup finds a record by raw key or pretty key, ignoring case.
func (e *Engine) Lookup(key string) (Result, bool) {
	want := strings.ToLower(strings.TrimSpace(key))
	if want == "" {
		return Result{}, false
	}
	for _, r := range e.records {
		if strings.ToLower(r.Key()) == want || strings.ToLower(PrettifyKey(r.Key())) == want {
			return NewResult(r), true
		}
	}
	return Result{}, false
}

// Schema returns the schema of the indexed dataset.
func (e *Engine) Schema() *dataset.Schema { return e.store.Schema() }

// Len returns the number of indexed records.
func (e *Engine) Len() int { return len(e.records) }

// FlagCount returns how many records have col set.
func (e *Engine) FlagCount(col string) uint64 { return e.index.Count(col) }
