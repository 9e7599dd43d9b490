package screening

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

type staticWatchlist struct {
	entries []compliance.WatchlistEntry
	err     error
}

func (w *staticWatchlist) ListActive(context.Context) ([]compliance.WatchlistEntry, error) {
	return w.entries, w.err
}

func entry(name string, risk compliance.RiskLevel) compliance.WatchlistEntry {
	return compliance.WatchlistEntry{
		ID:          uuid.New(),
		PrimaryName: name,
		Source:      "OFAC",
		ListType:    "sanctions",
		RiskLevel:   risk,
		IsActive:    true,
	}
}

func newTestEngine(entries ...compliance.WatchlistEntry) *Engine {
	return NewEngine(&staticWatchlist{entries: entries}, zap.NewNop(), DefaultEngineConfig())
}

func TestMatchCustomerCloseVariant(t *testing.T) {
	target := entry("John Doe", compliance.RiskLevelHigh)
	engine := newTestEngine(target, entry("Xiomara Quispe", compliance.RiskLevelLow))

	candidates, err := engine.MatchCustomer(context.Background(), "Jon Doe", 0.7)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	got := candidates[0]
	assert.Equal(t, target.ID, got.WatchlistEntryID)
	assert.Equal(t, "John Doe", got.MatchedName)
	assert.Equal(t, compliance.RiskLevelHigh, got.RiskLevel)
	assert.Equal(t, "OFAC", got.SourceList)
	assert.InDelta(t, 0.9492, got.Score.Overall, 0.001)
}

func TestMatchCustomerReversedTokens(t *testing.T) {
	engine := newTestEngine(entry("John Doe", compliance.RiskLevelHigh))

	candidates, err := engine.MatchCustomer(context.Background(), "Doe John", 0.9)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 1.0, candidates[0].Score.Overall, "reversed variation matches exactly")
}

func TestMatchCustomerAlternateNames(t *testing.T) {
	e := entry("Corporate Front Ltd", compliance.RiskLevelCritical)
	e.AlternateNames = "John Doe; J. Doe Holdings"
	engine := newTestEngine(e)

	candidates, err := engine.MatchCustomer(context.Background(), "John Doe", 0.9)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "John Doe", candidates[0].MatchedName)
	assert.Equal(t, e.ID, candidates[0].WatchlistEntryID)
}

func TestMatchCustomerSkipsInactiveAndWhitelisted(t *testing.T) {
	inactive := entry("John Doe", compliance.RiskLevelHigh)
	inactive.IsActive = false
	whitelisted := entry("John Doe", compliance.RiskLevelHigh)
	whitelisted.IsWhitelisted = true
	engine := newTestEngine(inactive, whitelisted)

	candidates, err := engine.MatchCustomer(context.Background(), "John Doe", 0.7)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMatchCustomerEmptyName(t *testing.T) {
	engine := newTestEngine(entry("John Doe", compliance.RiskLevelHigh))

	for _, name := range []string{"", "   ", "Mr."} {
		candidates, err := engine.MatchCustomer(context.Background(), name, 0.7)
		assert.NoError(t, err)
		assert.Empty(t, candidates, "name %q", name)
	}
}

func TestMatchCustomerThresholdMonotonic(t *testing.T) {
	engine := newTestEngine(
		entry("John Doe", compliance.RiskLevelHigh),
		entry("Jon Dough", compliance.RiskLevelMedium),
		entry("Jane Roe", compliance.RiskLevelLow),
	)

	loose, err := engine.MatchCustomer(context.Background(), "John Doe", 0.5)
	require.NoError(t, err)
	strict, err := engine.MatchCustomer(context.Background(), "John Doe", 0.9)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(strict), len(loose))
	looseIDs := make(map[uuid.UUID]bool)
	for _, c := range loose {
		looseIDs[c.WatchlistEntryID] = true
	}
	for _, c := range strict {
		assert.True(t, looseIDs[c.WatchlistEntryID], "strict results must be a subset")
	}
}

func TestMatchCustomerOrderedByScore(t *testing.T) {
	engine := newTestEngine(
		entry("Jon Dough", compliance.RiskLevelMedium),
		entry("John Doe", compliance.RiskLevelHigh),
	)

	candidates, err := engine.MatchCustomer(context.Background(), "John Doe", 0.5)
	require.NoError(t, err)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score.Overall, candidates[i].Score.Overall)
	}
}

func TestMatchCustomerWatchlistError(t *testing.T) {
	engine := NewEngine(&staticWatchlist{err: errors.New("db down")}, zap.NewNop(), DefaultEngineConfig())

	_, err := engine.MatchCustomer(context.Background(), "John Doe", 0.7)
	assert.Error(t, err)
}

func TestMatchTransaction(t *testing.T) {
	engine := newTestEngine(entry("John Doe", compliance.RiskLevelHigh))

	candidates, err := engine.MatchTransaction(context.Background(), &compliance.Transaction{
		ID:               uuid.New(),
		CustomerID:       uuid.New(),
		CounterpartyName: "John Doe",
	}, 0.9)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	candidates, err = engine.MatchTransaction(context.Background(), nil, 0.9)
	assert.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMatchBatch(t *testing.T) {
	engine := newTestEngine(entry("John Doe", compliance.RiskLevelHigh))

	customers := []compliance.Customer{
		{ID: uuid.New(), FullName: "Unrelated Person Zq"},
		{ID: uuid.New(), FullName: "John Doe"},
		{ID: uuid.New(), FullName: ""},
	}
	results, err := engine.MatchBatch(context.Background(), customers, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "John Doe", results[0].Name, "best match sorts first")
	require.NotEmpty(t, results[0].Candidates)
	assert.Equal(t, 1.0, results[0].Candidates[0].Score.Overall)
	assert.Empty(t, results[1].Candidates)
	assert.Empty(t, results[2].Candidates)
}

func TestMatchBatchEmpty(t *testing.T) {
	engine := newTestEngine(entry("John Doe", compliance.RiskLevelHigh))
	results, err := engine.MatchBatch(context.Background(), nil, 0.7)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
