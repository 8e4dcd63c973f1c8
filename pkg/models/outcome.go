package models

// OutcomeStatus tags the result of a delivery attempt.
type OutcomeStatus string

const (
	OutcomeSent      OutcomeStatus = "sent"
	OutcomeSimulated OutcomeStatus = "simulated"
	OutcomeFailed    OutcomeStatus = "failed"
)

// DeliveryOutcome is the structured result of handing a formatted message
// to a delivery sink.
type DeliveryOutcome struct {
	Status OutcomeStatus
	// ProviderID is the provider-assigned message identifier. Set for
	// Sent and Simulated outcomes.
	ProviderID string
	Err        error
}

func Sent(providerID string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeSent, ProviderID: providerID}
}

func Simulated(providerID string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeSimulated, ProviderID: providerID}
}

func Failed(err error) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeFailed, Err: err}
}

// Committable reports whether the outcome permits committing the message
// identifier into the ledger. Only Sent and Simulated qualify.
func (o DeliveryOutcome) Committable() bool {
	return o.Status == OutcomeSent || o.Status == OutcomeSimulated
}
