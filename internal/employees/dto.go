package employees

type CreateEmployeeRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required,max=100"`
	Position   string `json:"position" validate:"required,max=100"`
	HireDate   string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateEmployeeRequest struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Position   *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Status     *string `json:"status,omitempty"`
}

type ListEmployeesRequest struct {
	Search string
	Status string
	Limit  int
	Offset int
}

type listEmployeesResponse struct {
	Employees []Employee `json:"employees"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
