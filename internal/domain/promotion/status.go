package promotion

type Status string

const (
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is one of the four workflow states. Any valid
// state may follow any other.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusApproved, StatusCompleted:
		return true
	}

	return false
}
