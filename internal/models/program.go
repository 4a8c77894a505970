package models

import "time"

// Program is a training course definition. Reference data owned by the
// catalog import pipeline; this API never mutates it.
type Program struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
