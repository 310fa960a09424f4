package quota

import "strings"

// GoZeroTime is how a Go backend serializes time.Time{}; it stands for "no
// known recovery time".
const GoZeroTime = "0001-01-01T00:00:00"

var exhaustedMarkers = []string{
	"RESOURCE_EXHAUSTED",
	"Resource has been exhausted",
}

// LastError is the last upstream error recorded against a credential.
type LastError struct {
	HTTPStatus int    `json:"http_status"`
	Message    string `json:"message"`
}

// QuotaStatus is the backend's own view of a credential's quota.
type QuotaStatus struct {
	Exceeded      bool   `json:"exceeded"`
	Reason        string `json:"reason,omitempty"`
	NextRecoverAt string `json:"next_recover_at,omitempty"`
}

// CredentialState exposes the runtime state the classifiers read.
type CredentialState interface {
	LastErrorState() *LastError
	QuotaState() *QuotaStatus
}

// IsExhaustedError reports whether the credential's last error is a 429 whose
// message signals resource exhaustion.
func IsExhaustedError(item CredentialState) bool {
	if item == nil {
		return false
	}
	le := item.LastErrorState()
	if le == nil || le.HTTPStatus != 429 {
		return false
	}
	for _, marker := range exhaustedMarkers {
		if strings.Contains(le.Message, marker) {
			return true
		}
	}
	return false
}

// IsNeverRecoverQuota reports whether the quota is exceeded and the backend
// could not compute a recovery time.
func IsNeverRecoverQuota(item CredentialState) bool {
	if item == nil {
		return false
	}
	q := item.QuotaState()
	if q == nil || !q.Exceeded {
		return false
	}
	return IsGoZeroTime(q.NextRecoverAt)
}

// IsGoZeroTime reports whether s is the serialized zero time.
func IsGoZeroTime(s string) bool {
	return strings.HasPrefix(s, GoZeroTime)
}

// IsExhausted reports whether the group's remaining fraction is known and
// used up.
func IsExhausted(g Group) bool {
	return g.RemainingFraction != nil && *g.RemainingFraction <= 0
}
