package models

import "time"

// Team — дуэт из ровно двух участников конкурса.
// Участник состоит не более чем в одном дуэте одновременно.
type Team struct {
	ID        string    `json:"id" db:"id"`
	ContestID string    `json:"contest_id" db:"contest_id"`
	Name      string    `json:"name" db:"name"`
	MemberAID string    `json:"member_a_id" db:"member_a_id"`
	MemberBID string    `json:"member_b_id" db:"member_b_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasMember сообщает, входит ли участник в состав дуэта.
func (t Team) HasMember(participantID string) bool {
	return t.MemberAID == participantID || t.MemberBID == participantID
}
