package probe

// Kind is what the upstream told us, before thresholding.
type Kind int

const (
	// KindUnknown covers timeouts, network errors, unexpected statuses
	// and responses missing the balance header. Unknown results never
	// disable or re-enable a credential.
	KindUnknown Kind = iota

	// KindBalance means a balance was read from a response header.
	KindBalance

	// KindExhausted means the provider answered with the billing-exhausted
	// status code; this is deterministic regardless of header presence.
	KindExhausted
)

// Result is the raw outcome of one probe request.
type Result struct {
	Kind       Kind
	Balance    float64
	HeaderUsed string // which balance header answered, for logs
	HTTPStatus int
	Err        string
}

// Outcome is the post-threshold classification.
type Outcome string

const (
	OutcomeHealthy  Outcome = "healthy"
	OutcomeDepleted Outcome = "depleted"
	OutcomeUnknown  Outcome = "unknown"
)

// Classify applies the depletion threshold to a probe result. Depleted iff
// balance < threshold, strictly: a balance exactly at the threshold is
// healthy. Exhausted responses are depleted no matter what the header said.
func Classify(res Result, threshold float64) Outcome {
	switch res.Kind {
	case KindExhausted:
		return OutcomeDepleted
	case KindBalance:
		if res.Balance < threshold {
			return OutcomeDepleted
		}
		return OutcomeHealthy
	default:
		return OutcomeUnknown
	}
}
