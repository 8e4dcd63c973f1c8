package models

// ProcessingStatus is the terminal state of one message's pass through the
// forwarding pipeline.
type ProcessingStatus string

const (
	StatusDelivered ProcessingStatus = "delivered"
	StatusSkipped   ProcessingStatus = "skipped"
	StatusFiltered  ProcessingStatus = "filtered"
	StatusFailed    ProcessingStatus = "failed"
)

// ProcessingResult reports what happened to a single message.
type ProcessingResult struct {
	Status  ProcessingStatus
	Outcome DeliveryOutcome
	Err     error
}

func Delivered(outcome DeliveryOutcome) ProcessingResult {
	return ProcessingResult{Status: StatusDelivered, Outcome: outcome}
}

func Skipped() ProcessingResult {
	return ProcessingResult{Status: StatusSkipped}
}

func Filtered() ProcessingResult {
	return ProcessingResult{Status: StatusFiltered}
}

func DeliveryFailed(err error) ProcessingResult {
	return ProcessingResult{Status: StatusFailed, Err: err}
}

// BatchSummary accumulates per-message results across one batch.
type BatchSummary struct {
	Delivered int
	Skipped   int
	Filtered  int
	Failed    int
}

func (s *BatchSummary) Add(r ProcessingResult) {
	switch r.Status {
	case StatusDelivered:
		s.Delivered++
	case StatusSkipped:
		s.Skipped++
	case StatusFiltered:
		s.Filtered++
	case StatusFailed:
		s.Failed++
	}
}

func (s BatchSummary) Total() int {
	return s.Delivered + s.Skipped + s.Filtered + s.Failed
}
