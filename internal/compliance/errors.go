package compliance

import "errors"

// Domain errors. Screening itself never returns these: malformed or empty
// names degrade to empty results, since "nothing to screen" is a legitimate
// input, not a failure.
var (
	// ErrInvalidTransition is returned when a workflow transition is
	// attempted from a terminal state or to a non-adjacent state. The
	// alert and its audit history are left unchanged.
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrNoEscalationTarget indicates the organizational hierarchy has no
	// user to escalate to. The alert stays as-is until the next poll.
	ErrNoEscalationTarget = errors.New("no escalation target")

	// ErrNoEligibleAssignee indicates no active, under-capacity user could
	// be resolved for a new alert.
	ErrNoEligibleAssignee = errors.New("no eligible assignee")

	// ErrNoResponsibleTeam indicates team routing found no active team.
	ErrNoResponsibleTeam = errors.New("no responsible team")

	// ErrAlertNotFound is returned by stores for lookups of unknown alerts.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrStaleAlert is returned when an optimistic-concurrency check fails,
	// i.e. the alert was modified since it was read. A concurrent
	// escalation pass lost the race and must not be retried blindly.
	ErrStaleAlert = errors.New("alert version conflict")
)
