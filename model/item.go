package model

import "time"

// Attributes holds the remote state of a stored object, as reported by
// the cluster. LastAccessedAt is a hint and may be zero when the
// cluster does not track access times.
type Attributes struct {
	Size           int64             `json:"size"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at,omitempty"`
	Checksum       string            `json:"checksum"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// WorkItem is one identifier from the input list, plus everything the
// pipeline learned about it. An item is owned exclusively by the worker
// processing it; before and after that it is read-only.
type WorkItem struct {
	// Index is the zero-based position in the input list. Duplicated
	// identifiers get distinct indexes and are processed independently.
	Index int
	// ID is the cluster-scoped object identifier, e.g.
	// "group1/M00/00/2F/abc.jpg".
	ID string

	// Attrs is populated once by the owning worker; nil on fetch error.
	Attrs *Attributes

	Status  ItemStatus
	Matched bool
	// Reason describes which criteria clause(s) matched.
	Reason string
	// Detail is the action's human-readable result.
	Detail string
	// Err holds the fetch or action error message, empty when none.
	Err string
	// ResultID is set by actions that produce a new identifier
	// (re-upload, replicate, rebalance).
	ResultID string
}
