package screening

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// MatchCandidate is one watchlist hit above the threshold. Candidates live
// for the duration of a single matching call; an entry with several
// alternate names may produce several candidates, and de-duplication by
// entry id is the caller's concern.
type MatchCandidate struct {
	WatchlistEntryID uuid.UUID
	MatchedName      string
	Score            Score
	SourceList       string
	ListType         string
	RiskLevel        compliance.RiskLevel
}

// BatchResult pairs one customer of a batch with their ranked candidates.
type BatchResult struct {
	CustomerID uuid.UUID
	Name       string
	Candidates []MatchCandidate
}

// EngineConfig tunes the matching engine.
type EngineConfig struct {
	// DefaultThreshold is used when a caller passes a non-positive
	// threshold to MatchCustomer.
	DefaultThreshold float64
	// BatchConcurrency bounds the number of customers matched in
	// parallel by MatchBatch. Zero means a sensible default.
	BatchConcurrency int
}

// DefaultEngineConfig returns the production matching configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultThreshold: 0.70,
		BatchConcurrency: 8,
	}
}

// Engine screens customer names against the active watchlist using
// normalization, phonetic variations and blended similarity scoring.
// Matching is pure and CPU-bound; the watchlist snapshot is read once per
// call and shared read-only across batch workers.
type Engine struct {
	watchlist compliance.WatchlistReader
	logger    *zap.Logger
	config    EngineConfig
}

// NewEngine creates a matching engine over the given watchlist reader.
func NewEngine(watchlist compliance.WatchlistReader, logger *zap.Logger, config EngineConfig) *Engine {
	if config.DefaultThreshold <= 0 {
		config.DefaultThreshold = DefaultEngineConfig().DefaultThreshold
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = DefaultEngineConfig().BatchConcurrency
	}
	return &Engine{watchlist: watchlist, logger: logger, config: config}
}

// MatchCustomer screens a single name and returns candidates with an
// overall score at or above threshold, ordered by descending score.
// An empty or honorific-only name returns no candidates and no error.
func (e *Engine) MatchCustomer(ctx context.Context, name string, threshold float64) ([]MatchCandidate, error) {
	if threshold <= 0 {
		threshold = e.config.DefaultThreshold
	}

	normalized := NormalizeName(name)
	if normalized.IsEmpty() {
		return nil, nil
	}

	entries, err := e.watchlist.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	candidates := e.matchAgainstEntries(normalized, entries, threshold)

	e.logger.Debug("customer screening completed",
		zap.String("name", normalized.Normalized),
		zap.Float64("threshold", threshold),
		zap.Int("watchlist_entries", len(entries)),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

// MatchTransaction screens a transaction's counterparty name.
func (e *Engine) MatchTransaction(ctx context.Context, tx *compliance.Transaction, threshold float64) ([]MatchCandidate, error) {
	if tx == nil {
		return nil, nil
	}
	return e.MatchCustomer(ctx, tx.CounterpartyName, threshold)
}

// MatchBatch screens many customers concurrently against one watchlist
// snapshot. Each customer's computation is independent and read-only, so
// workers need no locking; result order is re-established by sorting, not
// by completion order.
func (e *Engine) MatchBatch(ctx context.Context, customers []compliance.Customer, threshold float64) ([]BatchResult, error) {
	if threshold <= 0 {
		threshold = e.config.DefaultThreshold
	}
	if len(customers) == 0 {
		return nil, nil
	}

	entries, err := e.watchlist.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	results := make([]BatchResult, len(customers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchConcurrency)
	for i, customer := range customers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			normalized := NormalizeName(customer.FullName)
			var candidates []MatchCandidate
			if !normalized.IsEmpty() {
				candidates = e.matchAgainstEntries(normalized, entries, threshold)
			}
			mu.Lock()
			results[i] = BatchResult{
				CustomerID: customer.ID,
				Name:       customer.FullName,
				Candidates: candidates,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return bestScore(results[i].Candidates) > bestScore(results[j].Candidates)
	})
	return results, nil
}

// matchAgainstEntries scores the customer's phonetic variations against
// every name of every usable entry, keeping the best score per entry name.
func (e *Engine) matchAgainstEntries(name NormalizedName, entries []compliance.WatchlistEntry, threshold float64) []MatchCandidate {
	signature := Encode(name)

	variations := make([]NormalizedName, 0, len(signature.Variations))
	for _, v := range signature.Variations {
		if n := NormalizeName(v); !n.IsEmpty() {
			variations = append(variations, n)
		}
	}

	var candidates []MatchCandidate
	for i := range entries {
		entry := &entries[i]
		if !entry.IsActive || entry.IsWhitelisted {
			continue
		}

		entryNames := append([]string{entry.PrimaryName}, entry.AlternateNameList()...)
		for _, entryName := range entryNames {
			target := NormalizeName(entryName)
			if target.IsEmpty() {
				continue
			}

			best := Score{BestAlgorithm: AlgorithmLevenshtein}
			for _, variation := range variations {
				if s := ScorePair(variation, target); s.Overall > best.Overall {
					best = s
				}
			}
			if best.Overall < threshold {
				continue
			}

			candidates = append(candidates, MatchCandidate{
				WatchlistEntryID: entry.ID,
				MatchedName:      entryName,
				Score:            best,
				SourceList:       entry.Source,
				ListType:         entry.ListType,
				RiskLevel:        entry.RiskLevel,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score.Overall > candidates[j].Score.Overall
	})
	return candidates
}

func bestScore(candidates []MatchCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return candidates[0].Score.Overall
}
