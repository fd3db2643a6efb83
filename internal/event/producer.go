package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	pkgkafka "github.com/lucifer-699/EduCourseFrontend/pkg/kafka"
	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
)

// Session event types.
const (
	TypeSessionLogin   = "session.login"
	TypeSessionLogout  = "session.logout"
	TypeSessionExpired = "session.expired"
)

// TopicSessionEvents carries every session lifecycle event.
var TopicSessionEvents = pkgkafka.Topic("session", "events")

const (
	AggregateTypeUser = "user"
	SourceFrontend    = "lms-frontend"
)

// SessionData is the payload of every session event. Session is a shortened
// id, never the cookie value.
type SessionData struct {
	Session string      `json:"session"`
	UserID  string      `json:"user_id"`
	Email   string      `json:"email,omitempty"`
	Role    domain.Role `json:"role,omitempty"`
}

// Publisher announces session lifecycle changes. Publishing is best effort;
// callers log failures and carry on.
type Publisher interface {
	PublishLogin(ctx context.Context, sid string, id domain.Identity) error
	PublishLogout(ctx context.Context, sid string, id *domain.Identity) error
	PublishExpired(ctx context.Context, sid string, id *domain.Identity) error
}

// Producer publishes session events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a session event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) PublishLogin(ctx context.Context, sid string, id domain.Identity) error {
	return p.publish(ctx, TypeSessionLogin, sid, &id)
}

func (p *Producer) PublishLogout(ctx context.Context, sid string, id *domain.Identity) error {
	return p.publish(ctx, TypeSessionLogout, sid, id)
}

func (p *Producer) PublishExpired(ctx context.Context, sid string, id *domain.Identity) error {
	return p.publish(ctx, TypeSessionExpired, sid, id)
}

func (p *Producer) publish(ctx context.Context, eventType, sid string, id *domain.Identity) error {
	data := SessionData{Session: logger.ShortID(sid)}
	aggregateID := data.Session
	if id != nil {
		data.UserID = id.ID
		data.Email = id.Email
		data.Role = id.Role
		aggregateID = id.ID
	}

	evt, err := pkgkafka.NewEvent(eventType, aggregateID, AggregateTypeUser, SourceFrontend, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, TopicSessionEvents, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published session event",
		slog.String("event_type", eventType),
		slog.String("user_id", data.UserID),
	)
	return nil
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishLogin(context.Context, string, domain.Identity) error    { return nil }
func (Noop) PublishLogout(context.Context, string, *domain.Identity) error  { return nil }
func (Noop) PublishExpired(context.Context, string, *domain.Identity) error { return nil }
