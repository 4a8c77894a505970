package models

import "time"

// TrainingSession is the scheduled delivery of a program, bound 1:1 to a
// nomination batch at creation time and not mutated afterwards.
type TrainingSession struct {
	ID                string    `db:"id" json:"id"`
	ProgramName       string    `db:"program_name" json:"program_name"`
	TrainerName       string    `db:"trainer_name" json:"trainer_name"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	Location          string    `db:"location" json:"location"`
	Topics            string    `db:"topics" json:"topics"`
	NominationBatchID string    `db:"nomination_batch_id" json:"nomination_batch_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// SessionDetail joins a session with its batch for list and detail views.
type SessionDetail struct {
	TrainingSession
	BatchName   string      `db:"batch_name" json:"batch_name"`
	BatchStatus BatchStatus `db:"batch_status" json:"batch_status"`
	Enrolled    int         `db:"enrolled" json:"enrolled"`
}

// SessionFilter constrains session listing.
type SessionFilter struct {
	ProgramName string
	TrainerName string
	Status      BatchStatus
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
