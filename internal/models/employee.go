package models

import "time"

// Employee is reference data from the HR feed. The only write this API
// performs is the just-in-time upsert during QR self-registration.
type Employee struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Department   string    `db:"department" json:"department"`
	ManagerName  *string   `db:"manager_name" json:"manager_name,omitempty"`
	ManagerEmail *string   `db:"manager_email" json:"manager_email,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
