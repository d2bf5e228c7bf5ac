package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/observability"
)

const progressBufferSize = 32

// ProgressService fans pipeline progress out to stream subscribers on every node.
type ProgressService interface {
	Publish(ctx context.Context, event dto.ProgressEvent) error
	Subscribe(projectID uint) (<-chan dto.ProgressEvent, func())
	Start(ctx context.Context)
}

type progressService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	validator    *validator.Validate
	logger       zerolog.Logger
	broker       *progressBroker
	nodeID       string
}

type progressEnvelope struct {
	Source string            `json:"source"`
	Event  dto.ProgressEvent `json:"event"`
}

type progressBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.ProgressEvent]struct{}
}

// NewProgressService constructs the progress service. Redis and NATS are optional;
// NATS carries cross-node events when both are given. Without either, events
// reach local subscribers only.
func NewProgressService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	channel := ""
	subject := ""
	switch {
	case channelBase == "":
	case natsConn != nil:
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".progress"
	case redisClient != nil:
		channel = channelBase + ":progress"
	}

	return &progressService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		validator:    validate,
		logger:       logger.With().Str("component", "progress_service").Logger(),
		broker: &progressBroker{
			subscribers: make(map[uint]map[chan dto.ProgressEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *progressService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish delivers the event locally, then forwards it to the other nodes. A forwarding
// failure is logged and does not fail the pipeline.
func (s *progressService) Publish(ctx context.Context, event dto.ProgressEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.validator.Struct(event); err != nil {
		return err
	}

	s.broker.broadcast(event)
	if err := s.forward(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("project_id", event.ProjectID).Msg("failed to forward progress event")
	}
	return nil
}

func (s *progressService) Subscribe(projectID uint) (<-chan dto.ProgressEvent, func()) {
	channel := make(chan dto.ProgressEvent, progressBufferSize)

	s.broker.subscribe(projectID, channel)
	observability.ProgressSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(projectID, channel)
			observability.ProgressSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (s *progressService) forward(ctx context.Context, event dto.ProgressEvent) error {
	payload, err := json.Marshal(progressEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *progressService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("progress redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

// consumeNATS subscribes without a queue group so every node receives every event.
func (s *progressService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats progress subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain progress nats subscription")
		}
	}()
}

func (s *progressService) handleEnvelope(payload []byte) {
	var envelope progressEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid progress event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *progressBroker) subscribe(projectID uint, ch chan dto.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[projectID]; !exists {
		b.subscribers[projectID] = make(map[chan dto.ProgressEvent]struct{})
	}
	b.subscribers[projectID][ch] = struct{}{}
}

func (b *progressBroker) unsubscribe(projectID uint, ch chan dto.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[projectID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, projectID)
		}
	}
}

// broadcast drops the event for subscribers whose buffer is full.
func (b *progressBroker) broadcast(event dto.ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.ProjectID] {
		select {
		case ch <- event:
		default:
		}
	}
}
