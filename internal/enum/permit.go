package enum

type PermitStatus string

const (
	PermitStatusActive    PermitStatus = "active"
	PermitStatusCompleted PermitStatus = "completed"
	PermitStatusCancelled PermitStatus = "cancelled"
)

func (t PermitStatus) String() string {
	return string(t)
}

func DecodePermitStatus(s string) PermitStatus {
	switch s {
	case "active", "completed", "cancelled":
		return PermitStatus(s)
	default:
		return ""
	}
}
