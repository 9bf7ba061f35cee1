package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/messaging"
)

const defaultListLimit = 100

// Service records integration events: one integration_logs row per event,
// also published on the integration events channel.
type Service struct {
	repo      repository.IntegrationLogRepository
	publisher messaging.Publisher
}

func NewService(repo repository.IntegrationLogRepository, publisher messaging.Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Log writes one event. Payload is any JSON-encodable value. Failures are
// logged and returned; callers on a user-facing path may ignore them.
func (s *Service) Log(ctx context.Context, eventType, source string, payload interface{}) error {
	entry := &model.IntegrationLog{
		EventType: eventType,
		Source:    source,
		Payload:   toJSONMap(payload),
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to write integration log")
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, messaging.ChannelIntegrationEvents, entry); err != nil {
			log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish integration event")
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, eventType string, limit int) ([]*model.IntegrationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, eventType, limit)
}

func toJSONMap(payload interface{}) model.JSONMap {
	switch v := payload.(type) {
	case nil:
		return model.JSONMap{}
	case model.JSONMap:
		return v
	case map[string]interface{}:
		return model.JSONMap(v)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return model.JSONMap{"error": err.Error()}
	}
	m := model.JSONMap{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.JSONMap{"value": string(raw)}
	}
	return m
}
