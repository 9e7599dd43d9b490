package alerts

import (
	"time"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// SLAConfig holds the base review windows per risk level, in hours.
type SLAConfig struct {
	CriticalHours float64
	HighHours     float64
	MediumHours   float64
	DefaultHours  float64 // LOW and anything unrecognised
}

// DefaultSLAConfig returns the production SLA windows.
func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		CriticalHours: 2,
		HighHours:     6,
		MediumHours:   12,
		DefaultHours:  24,
	}
}

// escalationLevelFactor shrinks the review window at each escalation
// level: later reviewers get progressively less time.
var escalationLevelFactor = map[int]float64{
	0: 1.0,
	1: 0.5,
	2: 0.25,
	3: 0.125,
}

func (c SLAConfig) baseHours(risk compliance.RiskLevel) float64 {
	switch risk {
	case compliance.RiskLevelCritical:
		return c.CriticalHours
	case compliance.RiskLevelHigh:
		return c.HighHours
	case compliance.RiskLevelMedium:
		return c.MediumHours
	default:
		return c.DefaultHours
	}
}

// Window returns the SLA duration for an alert of the given risk at the
// given escalation level, floored to one hour.
func (c SLAConfig) Window(risk compliance.RiskLevel, level int) time.Duration {
	factor, ok := escalationLevelFactor[level]
	if !ok {
		factor = escalationLevelFactor[compliance.MaxEscalationLevel]
	}
	hours := c.baseHours(risk) * factor
	if hours < 1 {
		hours = 1
	}
	return time.Duration(hours * float64(time.Hour))
}

// DueDate computes the SLA deadline from now for the given risk and level.
func (c SLAConfig) DueDate(now time.Time, risk compliance.RiskLevel, level int) time.Time {
	return now.Add(c.Window(risk, level))
}
