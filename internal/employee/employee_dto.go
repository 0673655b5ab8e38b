package employee

type CreateEmployeeRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	DepartmentID     string `json:"department_id" binding:"omitempty,uuid"`
	ManagerID        string `json:"manager_id" binding:"omitempty,uuid"`
	EmployeeNumber   string `json:"employee_number"`
	Phone            string `json:"phone"`
	HireDate         string `json:"hire_date" binding:"required"`
	EmploymentStatus string `json:"employment_status" binding:"omitempty,oneof=ACTIVE PROBATION ON_LEAVE TERMINATED"`
}

type UpdateEmployeeRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	DepartmentID     string `json:"department_id" binding:"omitempty,uuid"`
	ManagerID        string `json:"manager_id" binding:"omitempty,uuid"`
	EmployeeNumber   string `json:"employee_number"`
	Phone            string `json:"phone"`
	HireDate         string `json:"hire_date" binding:"required"`
	EmploymentStatus string `json:"employment_status" binding:"omitempty,oneof=ACTIVE PROBATION ON_LEAVE TERMINATED"`
}

type EmployeeResponse struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	EmployeeNumber   string `json:"employee_number"`
	Phone            string `json:"phone,omitempty"`
	HireDate         string `json:"hire_date"`
	EmploymentStatus string `json:"employment_status"`
	CompanyID        string `json:"company_id"`
	DepartmentID     string `json:"department_id,omitempty"`
	ManagerID        string `json:"manager_id,omitempty"`
}
