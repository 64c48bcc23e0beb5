package billing

// ResultStatus classifies the outcome of processing one webhook event.
type ResultStatus int

const (
	// StatusOK means the event was applied (or intentionally produced no
	// mutation, e.g. an update for an unknown subscription).
	StatusOK ResultStatus = iota
	// StatusIgnored means the event type is not handled by the engine.
	StatusIgnored
	// StatusSoftError means a referenced entity could not be resolved. The
	// event is still acknowledged with 200 so the processor does not retry a
	// condition that will never resolve itself.
	StatusSoftError
)

// Result is returned by the reconciliation engine for every event. Hard
// failures (DB errors) are returned as a separate error and are the only
// conditions that surface as a 5xx to the processor.
type Result struct {
	Status ResultStatus
	Detail string
}

func okResult() Result      { return Result{Status: StatusOK} }
func ignoredResult() Result { return Result{Status: StatusIgnored} }
func softError(detail string) Result {
	return Result{Status: StatusSoftError, Detail: detail}
}
