package store

import (
	"errors"
	"fmt"
	"time"
)

// ReasonBilling is the disablement reason this tool owns. Records disabled
// for any other reason are never modified.
const ReasonBilling = "billing"

// ErrStoreRead marks a missing or unparseable credential store. Callers
// treat it as fatal for the whole run.
var ErrStoreRead = errors.New("credential store unreadable")

// NotFoundError reports a mutation against an id the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("credential %q not found in store", e.ID)
}

// Record is one credential profile plus the health fields this tool tracks
// for it. Profiles themselves are created and deleted by an external
// system; keypulse only reads them.
type Record struct {
	ID       string
	APIKey   string
	Provider string
	Health   HealthState
}

// HealthState mirrors the per-credential entry under the store's
// usageStats mapping. Timestamps are epoch milliseconds; zero means the
// field is absent in the document.
type HealthState struct {
	DisabledUntil  int64
	DisabledReason string
	ErrorCount     int
	FailureCounts  map[string]int
	LastFailureAt  int64
}

// Disabled reports whether the record is currently disabled, for any
// reason.
func (h HealthState) Disabled(now time.Time) bool {
	return h.DisabledUntil > 0 && now.UnixMilli() < h.DisabledUntil
}

// BillingDisabled reports whether the record carries a billing
// disablement, expired or not. Re-enable applies only in this case.
func (h HealthState) BillingDisabled() bool {
	return h.DisabledReason == ReasonBilling
}
