package models

import "time"

type EmployeeRole string

const (
	RoleWorker     EmployeeRole = "worker"
	RoleSupervisor EmployeeRole = "supervisor"
	RoleDriver     EmployeeRole = "driver"
)

type Employee struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	FirstName string       `gorm:"not null" json:"first_name"`
	LastName  string       `json:"last_name"`
	Phone     string       `gorm:"index" json:"phone"`
	Role      EmployeeRole `gorm:"type:varchar(20);not null;default:'worker'" json:"role"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// IsSupervisor проверяет, является ли сотрудник прорабом
func (e *Employee) IsSupervisor() bool {
	return e.Role == RoleSupervisor
}

// IsValid проверяет валидность данных
func (e *Employee) IsValid() bool {
	if e.FirstName == "" {
		return false
	}
	switch e.Role {
	case RoleWorker, RoleSupervisor, RoleDriver:
		return true
	}
	return false
}
