package model

// ItemStatus is the final outcome of one work item's pipeline.
type ItemStatus int

const (
	// StatusPending means the item has not been processed yet.
	StatusPending ItemStatus = iota
	// StatusSucceeded means the item matched and its action completed.
	StatusSucceeded
	// StatusFailed means the item matched but its action failed.
	StatusFailed
	// StatusSkipped means the item did not match the criteria.
	StatusSkipped
	// StatusFetchError means attributes could not be retrieved.
	StatusFetchError
)

func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusFetchError:
		return "fetch-error"
	default:
		return "unknown"
	}
}
