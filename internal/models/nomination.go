package models

import "time"

// NominationStatus tracks where a nomination sits in the training workflow.
// Values beyond PENDING and BATCHED exist in the wider system (attendance,
// completion); this API only ever writes these two.
type NominationStatus string

const (
	NominationStatusPending NominationStatus = "PENDING"
	NominationStatusBatched NominationStatus = "BATCHED"
)

// ApprovalStatus is the manager review state of a nomination. Approval is
// scoped to a specific scheduled session, so re-attaching a nomination to a
// batch always resets it to PENDING.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Nomination source tags.
const (
	NominationSourceQR    = "QR"
	NominationSourceQRJIT = "QR_JIT"
	NominationSourceAdmin = "ADMIN"
)

// Nomination is one employee's candidacy for one program, optionally
// attached to a batch. batch_id IS NULL means not part of any assembly.
type Nomination struct {
	ID                     string           `db:"id" json:"id"`
	EmpID                  string           `db:"emp_id" json:"emp_id"`
	ProgramID              string           `db:"program_id" json:"program_id"`
	BatchID                *string          `db:"batch_id" json:"batch_id,omitempty"`
	Status                 NominationStatus `db:"status" json:"status"`
	ManagerApprovalStatus  ApprovalStatus   `db:"manager_approval_status" json:"manager_approval_status"`
	ManagerRejectionReason *string          `db:"manager_rejection_reason" json:"manager_rejection_reason,omitempty"`
	Source                 string           `db:"source" json:"source"`
	Justification          string           `db:"justification" json:"justification"`
	CreatedAt              time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time        `db:"updated_at" json:"updated_at"`
}

// NominationDetail joins a nomination with employee and program context.
type NominationDetail struct {
	Nomination
	EmployeeName string  `db:"employee_name" json:"employee_name"`
	ProgramName  string  `db:"program_name" json:"program_name"`
	ManagerName  *string `db:"manager_name" json:"manager_name,omitempty"`
	ManagerEmail *string `db:"manager_email" json:"manager_email,omitempty"`
}

// NominationWithBatch pairs a nomination with its batch's current status,
// loaded in one query so removal guards see a consistent view.
type NominationWithBatch struct {
	Nomination
	BatchStatus *BatchStatus `db:"batch_status"`
}

// NominationFilter constrains nomination listing.
type NominationFilter struct {
	ProgramID      string
	Status         NominationStatus
	ApprovalStatus ApprovalStatus
	Unbatched      bool
	Page           int
	PageSize       int
}
