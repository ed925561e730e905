package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/pkg/logger"
)

const (
	// StreamName is the name of the interaction events stream.
	StreamName = "INTERACTIONS"

	// SubjectPrefix is the prefix for all interaction subjects.
	SubjectPrefix = "interactions"
)

// Publisher writes interaction events onto the JetStream side channel.
// A nil Publisher is valid and drops everything.
type Publisher struct {
	client *Client
	logger *logger.Logger
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// EnsureStream ensures the interactions stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Interaction events per owner and persona",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Publish emits one interaction event, best-effort. Failures are logged at
// warn level and swallowed.
func (p *Publisher) Publish(ctx context.Context, event *model.InteractionEvent) {
	if p == nil || p.client == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode interaction event", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s.%s.%s", SubjectPrefix,
		subjectToken(event.OwnerID), subjectToken(event.PersonaName))
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish interaction event",
			zap.String("subject", subject), zap.Error(err))
	}
}

// subjectToken makes a value safe to use as one NATS subject token.
func subjectToken(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>':
			return '_'
		}
		return r
	}, v)
}
