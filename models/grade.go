package models

import "time"

// Grade — оценка, выставленная оценивающим одной цели (участнику или дуэту).
// Запись неизменяемая: после создания не обновляется и не удаляется
// в обычном потоке, только каскадно вместе с конкурсом.
type Grade struct {
	ID            string   `json:"id" db:"id"`
	ContestID     string   `json:"contest_id" db:"contest_id"`
	EvaluatorID   string   `json:"evaluator_id" db:"evaluator_id"`
	EvaluatorName string   `json:"evaluator_name" db:"evaluator_name"`
	EvaluatorRole UserRole `json:"evaluator_role" db:"evaluator_role"`
	// Снимок флага-способности на момент выставления: такие оценки
	// выведены из-под уникальности (evaluator, target) в хранилище.
	SuperEvaluator bool      `json:"super_evaluator" db:"super_evaluator"`
	TargetID       string    `json:"target_id" db:"target_id"`
	Score          int       `json:"score" db:"score"`
	Comment        string    `json:"comment,omitempty" db:"comment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TargetKind различает виды целей оценивания.
type TargetKind string

const (
	TargetParticipant TargetKind = "participant"
	TargetTeam        TargetKind = "team"
)

// GradingTarget — цель оценивания в производных списках:
// сольный участник, не состоящий в дуэте, либо дуэт целиком.
type GradingTarget struct {
	ID   string     `json:"id"`
	Kind TargetKind `json:"kind"`
	Name string     `json:"name"`
}
