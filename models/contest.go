package models

import "time"

// ContestType представляет типы конкурсов, соответствующие ENUM в БД.
type ContestType string

const (
	TypeStandardGrading ContestType = "standard_grading"
	TypeSemiGrading     ContestType = "semi_grading"
	TypeCompetition     ContestType = "competition"
)

// Contest представляет конкурс с жизненным циклом waiting -> open -> closed.
// Состояние выводится из флагов: started=false — ожидание,
// started=true && ended=false — открыт, ended=true — закрыт (терминально).
type Contest struct {
	ID        string      `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	Type      ContestType `json:"type" db:"type"`
	Deadline  time.Time   `json:"deadline" db:"deadline"`
	CreatorID string      `json:"creator_id" db:"creator_id"`
	Started   bool        `json:"started" db:"started"`
	Ended     bool        `json:"ended" db:"ended"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`

	// Итоговая тройка призёров, заполняется при закрытии конкурса.
	TopResults []ContestResult `json:"top_results,omitempty" db:"-"`
}

// ContestResult — строка итоговой таблицы (среднее по оценкам цели).
type ContestResult struct {
	Rank       int     `json:"rank"`
	TargetID   string  `json:"target_id"`
	TargetName string  `json:"target_name"`
	Average    float64 `json:"average"`
	GradeCount int     `json:"grade_count"`
}

// IsValidContestType проверяет, что значение типа конкурса известно.
func IsValidContestType(t ContestType) bool {
	switch t {
	case TypeStandardGrading, TypeSemiGrading, TypeCompetition:
		return true
	default:
		return false
	}
}
