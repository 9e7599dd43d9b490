package alerts

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
	"github.com/jainguruprakash/PEP-sub001/internal/compliance/screening"
)

// FactoryConfig holds the score bands used to derive risk and priority.
// The bands are operational tuning, not business law.
type FactoryConfig struct {
	CriticalThreshold float64 // score >= this -> CRITICAL
	HighThreshold     float64 // score >= this -> HIGH
}

// DefaultFactoryConfig returns the production score bands.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		CriticalThreshold: 0.95,
		HighThreshold:     0.85,
	}
}

// ExternalMatch is a hit reported by an external screening source that
// carries its own score, e.g. the OpenSanctions API.
type ExternalMatch struct {
	CustomerID  *uuid.UUID
	Source      string
	MatchedName string
	Score       float64
	AlertType   compliance.AlertType
	RiskLevel   compliance.RiskLevel
}

// Factory converts match candidates into open alerts. One alert is created
// per surviving candidate; candidates referencing the same watchlist entry
// are not merged here, de-duplication is the caller's choice.
type Factory struct {
	clock  compliance.Clock
	logger *zap.Logger
	config FactoryConfig
}

// NewFactory creates an alert factory.
func NewFactory(clock compliance.Clock, logger *zap.Logger, config FactoryConfig) *Factory {
	if config.CriticalThreshold <= 0 {
		config = DefaultFactoryConfig()
	}
	return &Factory{clock: clock, logger: logger, config: config}
}

// FromCandidates builds one alert per candidate. Every alert starts at
// OPEN / PENDING_REVIEW with escalation level 0.
func (f *Factory) FromCandidates(customerID *uuid.UUID, candidates []screening.MatchCandidate) []*compliance.Alert {
	out := make([]*compliance.Alert, 0, len(candidates))
	for _, c := range candidates {
		risk := f.riskBand(c.Score.Overall)
		alert := f.newAlert(customerID, c.Score.Overall, risk)
		entryID := c.WatchlistEntryID
		alert.WatchlistEntryID = &entryID
		alert.AlertType = alertTypeForList(c.ListType, c.SourceList)
		alert.MatchedName = c.MatchedName
		alert.SourceList = c.SourceList
		out = append(out, alert)
	}
	return out
}

// FromExternalMatch builds an alert for an externally scored match. The
// external risk level wins only when it is stricter than the score band.
func (f *Factory) FromExternalMatch(m ExternalMatch) *compliance.Alert {
	risk := f.riskBand(m.Score)
	if riskRank(m.RiskLevel) > riskRank(risk) {
		risk = m.RiskLevel
	}
	alert := f.newAlert(m.CustomerID, m.Score, risk)
	alert.AlertType = m.AlertType
	alert.MatchedName = m.MatchedName
	alert.SourceList = m.Source
	return alert
}

func (f *Factory) newAlert(customerID *uuid.UUID, score float64, risk compliance.RiskLevel) *compliance.Alert {
	now := f.clock.Now()
	return &compliance.Alert{
		ID:              uuid.New(),
		CustomerID:      customerID,
		SimilarityScore: score,
		Status:          compliance.StatusOpen,
		WorkflowStatus:  compliance.WorkflowPendingReview,
		Priority:        risk,
		RiskLevel:       risk,
		EscalationLevel: 0,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (f *Factory) riskBand(score float64) compliance.RiskLevel {
	switch {
	case score >= f.config.CriticalThreshold:
		return compliance.RiskLevelCritical
	case score >= f.config.HighThreshold:
		return compliance.RiskLevelHigh
	default:
		return compliance.RiskLevelMedium
	}
}

func alertTypeForList(listType, source string) compliance.AlertType {
	switch strings.ToLower(listType) {
	case "pep":
		return compliance.AlertTypePEP
	case "adverse_media":
		return compliance.AlertTypeAdverseMedia
	}
	if strings.EqualFold(source, "opensanctions") {
		return compliance.AlertTypeOpenSanctions
	}
	return compliance.AlertTypeSanctions
}

func riskRank(r compliance.RiskLevel) int {
	switch r {
	case compliance.RiskLevelCritical:
		return 3
	case compliance.RiskLevelHigh:
		return 2
	case compliance.RiskLevelMedium:
		return 1
	default:
		return 0
	}
}
