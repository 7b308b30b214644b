package repositories

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// changeChannel — канал LISTEN/NOTIFY, в который репозитории публикуют
// события изменения коллекций.
const changeChannel = "contest_changes"

const (
	CollectionContests     = "contests"
	CollectionParticipants = "participants"
	CollectionTeams        = "teams"
	CollectionGrades       = "grades"
)

// ChangeEvent — событие изменения одной коллекции в рамках конкурса.
// Подписчики не получают сами данные: они заново перечитывают коллекцию,
// хранилище остаётся единственным источником истины.
type ChangeEvent struct {
	Collection string `json:"collection"`
	ContestID  string `json:"contest_id"`
	Op         string `json:"op"`
}

// ChangeListener слушает события изменения коллекций из Postgres.
type ChangeListener struct {
	listener *pq.Listener
	events   chan ChangeEvent
	logger   *slog.Logger
}

// NewChangeListener открывает LISTEN-подключение к каналу изменений.
func NewChangeListener(dsn string, logger *slog.Logger) (*ChangeListener, error) {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("change listener connection problem", slog.Any("error", err))
		}
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, reportProblem)
	if err := listener.Listen(changeChannel); err != nil {
		listener.Close()
		return nil, err
	}

	cl := &ChangeListener{
		listener: listener,
		events:   make(chan ChangeEvent, 64),
		logger:   logger,
	}
	go cl.run()
	return cl, nil
}

func (cl *ChangeListener) run() {
	defer close(cl.events)
	for notification := range cl.listener.Notify {
		if notification == nil {
			// Переподключение: подписчики должны перечитать свои виды.
			cl.events <- ChangeEvent{Collection: "*", Op: "resync"}
			continue
		}
		var event ChangeEvent
		if err := json.Unmarshal([]byte(notification.Extra), &event); err != nil {
			cl.logger.Warn("failed to decode change event",
				slog.String("payload", notification.Extra),
				slog.Any("error", err))
			continue
		}
		select {
		case cl.events <- event:
		default:
			cl.logger.Warn("change event channel full, dropping event",
				slog.String("collection", event.Collection))
		}
	}
}

// Events возвращает поток событий изменения. Канал закрывается вместе
// со слушателем.
func (cl *ChangeListener) Events() <-chan ChangeEvent {
	return cl.events
}

// Close останавливает слушателя.
func (cl *ChangeListener) Close() error {
	return cl.listener.Close()
}
