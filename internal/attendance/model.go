package attendance

import "time"

// Status values for a daily attendance record.
const (
	StatusPresent = "present"
	StatusOpen    = "open"
)

// Record represents one employee-day of attendance.
type Record struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	WorkDate    time.Time  `json:"date"`
	CheckIn     time.Time  `json:"check_in"`
	CheckOut    *time.Time `json:"check_out,omitempty"`
	HoursWorked *float64   `json:"hours_worked,omitempty"`
	Status      string     `json:"status"`
}
