package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// --- Общие хелперы ---

// NormalizeNickname приводит никнейм к ключу дедупликации: обрезка пробелов
// и юникодное сворачивание регистра. Единственная точка нормализации —
// все сравнения никнеймов в системе обязаны проходить через неё.
// Caser не потокобезопасен, поэтому создаётся на каждый вызов.
func NormalizeNickname(nickname string) string {
	return cases.Fold().String(strings.TrimSpace(nickname))
}

// newEntityID генерирует синтетический идентификатор с префиксом сущности.
// Метка времени плюс случайный суффикс: два одновременных добавления
// одинакового никнейма не столкнутся.
func newEntityID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), suffix)
}

// sameCalendarDayOrEarlier сообщает, наступила ли дата now не позже
// календарного дня deadline (время суток игнорируется, дедлайн включительный).
func sameCalendarDayOrEarlier(now, deadline time.Time) bool {
	ny, nm, nd := now.Date()
	dy, dm, dd := deadline.Date()
	nowDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	deadlineDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return !nowDay.After(deadlineDay)
}

// suggestedCategories — подсказки категорий по десятибалльным полосам [1,100],
// от "첫걸음" (1-10) до "레전드" (91-100). Ноль подсказки не даёт.
var suggestedCategories = [...]string{
	"첫걸음",
	"새싹",
	"연습생",
	"아마추어",
	"중수",
	"고수",
	"베테랑",
	"준프로",
	"프로",
	"레전드",
}

// SuggestedCategory возвращает подсказку категории для оценки.
// Для нуля и значений вне [0,100] возвращается пустая строка.
func SuggestedCategory(score int) string {
	if score < 1 || score > 100 {
		return ""
	}
	return suggestedCategories[(score-1)/10]
}
