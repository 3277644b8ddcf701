package leave

import "time"

// Leave types.
const (
	TypeVacation = "vacation"
	TypeSick     = "sick"
	TypePersonal = "personal"
	TypeUnpaid   = "unpaid"
)

// Request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Balance holds the remaining leave days per bucket for an employee.
type Balance struct {
	EmployeeID   string  `json:"employee_id"`
	VacationDays float64 `json:"vacation_days"`
	SickDays     float64 `json:"sick_days"`
	PersonalDays float64 `json:"personal_days"`
	UnpaidDays   float64 `json:"unpaid_days"`
}

// Request represents one time-off request.
type Request struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Type       string     `json:"type"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Days       float64    `json:"days"`
	Reason     string     `json:"reason,omitempty"`
	Status     string     `json:"status"`
	DecidedBy  *string    `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ValidType reports whether the value belongs to the closed leave-type set.
func ValidType(t string) bool {
	switch t {
	case TypeVacation, TypeSick, TypePersonal, TypeUnpaid:
		return true
	}
	return false
}
