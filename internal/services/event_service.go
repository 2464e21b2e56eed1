package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/contacts-api/internal/models"
)

// Event types recorded for account activity.
const (
	EventAccountRegister     = "account.register"
	EventAccountVerify       = "account.verify"
	EventAccountSubscription = "account.subscription"
	EventAccountAvatar       = "account.avatar"
	EventSessionLogin        = "session.login"
	EventSessionLogout       = "session.logout"
	EventSessionLogoutAll    = "session.logout_all"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, accountID, eventType, message string) error
	GetRecentEvents(ctx context.Context, accountID string, limit int) ([]models.Event, error)
}

// EventService provides business logic for event management.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, accountID, eventType, message string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Type:      eventType,
		Message:   message,
		CreatedAt: s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, account_id, type, message, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.AccountID, event.Type, event.Message, event.CreatedAt.Unix())
	return err
}

// GetRecentEvents retrieves the most recent events of an account, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, accountID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, type, message, created_at FROM events WHERE account_id = ? ORDER BY rowid DESC LIMIT ?",
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.AccountID, &event.Type, &event.Message, &createdAt); err != nil {
			return nil, err
		}
		event.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, event)
	}
	return events, rows.Err()
}
