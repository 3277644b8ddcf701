package payroll

import (
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Payrun statuses form a one-way state machine:
// draft -> submitted -> approved.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
)

// Payrun is one payroll cycle for a period such as "2026-08".
type Payrun struct {
	ID         string     `json:"id"`
	Period     string     `json:"period"`
	Status     string     `json:"status"`
	GrossTotal float64    `json:"gross_total"`
	NetTotal   float64    `json:"net_total"`
	Headcount  int        `json:"headcount"`
	CreatedBy  string     `json:"created_by"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// Payslip is one employee's line inside a payrun.
type Payslip struct {
	ID         string    `json:"id"`
	PayrunID   string    `json:"payrun_id"`
	EmployeeID string    `json:"employee_id"`
	Period     string    `json:"period"`
	GrossPay   float64   `json:"gross_pay"`
	Deductions float64   `json:"deductions"`
	NetPay     float64   `json:"net_pay"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`

	// Display strings, populated on the way out.
	GrossDisplay string `json:"gross_display,omitempty"`
	NetDisplay   string `json:"net_display,omitempty"`
}

// Salary is an employee's pay configuration.
type Salary struct {
	EmployeeID  string  `json:"employee_id"`
	BaseMonthly float64 `json:"base_monthly"`
	Currency    string  `json:"currency"`
}

// RunSummary aggregates a payrun for reporting.
type RunSummary struct {
	PayrunID        string  `json:"payrun_id"`
	Period          string  `json:"period"`
	Status          string  `json:"status"`
	Headcount       int     `json:"headcount"`
	GrossTotal      float64 `json:"gross_total"`
	DeductionsTotal float64 `json:"deductions_total"`
	NetTotal        float64 `json:"net_total"`
	AverageNet      float64 `json:"average_net"`
}

var printer = message.NewPrinter(language.English)

// formatAmount renders an amount with its ISO currency symbol, falling
// back to the bare code when the code is unknown.
func formatAmount(code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return printer.Sprintf("%s %.2f", code, amount)
	}
	return printer.Sprintf("%v", currency.NarrowSymbol(unit.Amount(amount)))
}

// withDisplay fills the formatted amount fields.
func (p Payslip) withDisplay() Payslip {
	p.GrossDisplay = formatAmount(p.Currency, p.GrossPay)
	p.NetDisplay = formatAmount(p.Currency, p.NetPay)
	return p
}
