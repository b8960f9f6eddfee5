package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RoleName string

const (
	RoleAdmin   RoleName = "Admin"
	RoleDoctor  RoleName = "Doctor"
	RoleNurse   RoleName = "Nurse"
	RoleStaff   RoleName = "Staff"
	RolePatient RoleName = "Patient"
)

// Permission strings checked by the route middleware.
const (
	PermPatientsRead   = "patients:read"
	PermPatientsWrite  = "patients:write"
	PermAppointsRead   = "appointments:read"
	PermAppointsWrite  = "appointments:write"
	PermBillingRead    = "billing:read"
	PermBillingWrite   = "billing:write"
	PermInventoryRead  = "inventory:read"
	PermInventoryWrite = "inventory:write"
	PermRecordsRead    = "records:read"
	PermRecordsWrite   = "records:write"
	PermActivityRead   = "activity:read"
	PermUsersManage    = "users:manage"
)

type Role struct {
	Base
	Name        RoleName       `db:"name" json:"name"`
	Permissions pq.StringArray `db:"permissions" json:"permissions"`
}

type User struct {
	Base
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	RoleID         uuid.UUID `db:"role_id" json:"role_id"`
	RoleName       RoleName  `db:"role_name" json:"role,omitempty"`
	Active         bool      `db:"active" json:"active"`
	LicenseNumber  *string   `db:"license_number" json:"license_number,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
}

// IsDoctor reports whether the user holds the Doctor role.
func (u *User) IsDoctor() bool {
	return u.RoleName == RoleDoctor
}

type UserFilters struct {
	Role   RoleName
	Active *bool
	Search string
	Pagination
}
