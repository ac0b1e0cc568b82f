package verification

// Status enum for the per-exchange lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerifying Status = "verifying"
	StatusVerified  Status = "verified"
	StatusWarning   Status = "warning"
	StatusFailed    Status = "failed"
)

// Precedence defines the total order used to merge out-of-order updates:
// failed > warning > verified > verifying > pending.
func (s Status) Precedence() int {
	switch s {
	case StatusPending:
		return 0
	case StatusVerifying:
		return 1
	case StatusVerified:
		return 2
	case StatusWarning:
		return 3
	case StatusFailed:
		return 4
	}
	return -1
}

// Terminal reports whether the status ends a run. A new run may still be
// triggered by an explicit re-verification.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerified, StatusWarning, StatusFailed:
		return true
	}
	return false
}

// Merge applies the precedence order: a lower-precedence update is dropped,
// never regressing a further-along record. Resets for a fresh run go through
// the state machine explicitly, not through Merge.
func Merge(current, next Status) Status {
	if next.Precedence() > current.Precedence() {
		return next
	}
	return current
}
