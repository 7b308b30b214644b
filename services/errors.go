package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки авторизации
	ErrPermissionDenied = errors.New("operation requires administrator role")

	// Доминирующая гварда: любая пользовательская мутация после закрытия
	ErrContestClosed = errors.New("contest is closed")

	// Ошибки валидации и бизнес-правил
	ErrContestTitleRequired  = errors.New("contest title is required")
	ErrContestTypeInvalid    = errors.New("invalid contest type provided")
	ErrContestAlreadyStarted = errors.New("contest has already been started")
	ErrNicknameRequired      = errors.New("participant nickname is required")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrInvalidTeamSelection  = errors.New("team selection must be exactly two distinct, unteamed participants")
	ErrInvalidScore          = errors.New("score must be between 0 and 100")
	ErrSelfGradingNotAllowed = errors.New("evaluator cannot grade their own entry")
	ErrAlreadyGraded         = errors.New("evaluator has already graded this target")

	// Ошибки, специфичные для сущностей (дают больше контекста, чем ErrNotFound)
	ErrContestNotFound     = errors.New("contest not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrTargetNotFound      = errors.New("grading target not found")
)
