package models

import "time"

// Participant — сольный участник конкурса. ID синтетический и не связан
// с учётной записью: участника можно внести по одному никнейму.
type Participant struct {
	ID        string    `json:"id" db:"id"`
	ContestID string    `json:"contest_id" db:"contest_id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}
