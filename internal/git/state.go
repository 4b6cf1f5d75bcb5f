package git

// OperationState is the kind of transient operation recorded in a repository.
type OperationState int

const (
	// StateIdle means that no merge or revert is in progress.
	StateIdle OperationState = iota
	// StateMergeInProgress means that a merge has been started but not yet committed.
	StateMergeInProgress
	// StateRevertInProgress means that a revert has been started but not yet committed.
	StateRevertInProgress
)

// String returns the human-readable name of the state.
func (s OperationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMergeInProgress:
		return "merge in progress"
	case StateRevertInProgress:
		return "revert in progress"
	default:
		return "unknown"
	}
}

// TransientMarker describes a merge or revert left behind by an external tool.
type TransientMarker struct {
	// State is the kind of operation in progress.
	State OperationState
	// Heads are the commits recorded as the other side of the operation. For a merge these
	// become additional parents, for a revert it is the commit being reverted.
	Heads []ObjectID
	// Message is the prepared commit message, if any.
	Message string
}

// Snapshot is the state captured before a transaction mutates a repository.
type Snapshot struct {
	// Head is the commit HEAD pointed to, or empty when HEAD was unborn.
	Head ObjectID
	// IndexTree is the tree the index was written to.
	IndexTree ObjectID
}
