package models

import "time"

// BatchStatus captures the lifecycle state of a nomination batch.
// Transitions only move forward: FORMING -> SCHEDULED -> COMPLETED.
type BatchStatus string

const (
	BatchStatusForming   BatchStatus = "FORMING"
	BatchStatusScheduled BatchStatus = "SCHEDULED"
	BatchStatusCompleted BatchStatus = "COMPLETED"
)

// Locked reports whether the batch no longer accepts roster changes.
func (s BatchStatus) Locked() bool {
	return s == BatchStatusScheduled || s == BatchStatusCompleted
}

// NominationBatch is a cohort being assembled for one program.
type NominationBatch struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	ProgramID string      `db:"program_id" json:"program_id"`
	Status    BatchStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
