package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/observability"
)

const roomSubscriberBuffer = 32

// RoomPublisher delivers an event to everyone connected to a room. Delivery is best effort.
type RoomPublisher interface {
	Publish(ctx context.Context, roomID uint, event string, payload interface{})
}

// RoomFanout publishes room events locally and relays them to other nodes through NATS or Redis.
type RoomFanout interface {
	RoomPublisher
	Subscribe(roomID uint) (<-chan dto.RoomEvent, func())
	Start(ctx context.Context)
}

type roomFanout struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time

	mu    sync.RWMutex
	rooms map[uint]map[chan dto.RoomEvent]struct{}
}

type relayedRoomEvent struct {
	Source string        `json:"source"`
	Event  dto.RoomEvent `json:"event"`
}

// NewRoomFanout constructs the room event fan-out. NATS takes precedence over Redis when both are configured.
func NewRoomFanout(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) RoomFanout {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":rooms"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".rooms"
	}

	return &roomFanout{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "room_fanout").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
		rooms:        make(map[uint]map[chan dto.RoomEvent]struct{}),
	}
}

func (f *roomFanout) useNATS() bool {
	return f.nats != nil && f.natsSubject != ""
}

func (f *roomFanout) useRedis() bool {
	return !f.useNATS() && f.redis != nil && f.redisChannel != ""
}

func (f *roomFanout) Start(ctx context.Context) {
	switch {
	case f.useNATS():
		f.consumeNATS(ctx)
	case f.useRedis():
		go f.consumeRedis(ctx)
	}
}

func (f *roomFanout) Publish(ctx context.Context, roomID uint, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		f.logger.Warn().Err(err).Str("event", event).Msg("failed to encode room event")
		observability.FanoutEvents().WithLabelValues("local", "failed").Inc()
		return
	}

	roomEvent := dto.RoomEvent{
		Event:  event,
		RoomID: roomID,
		Data:   data,
		SentAt: f.now().UTC(),
	}

	f.broadcast(roomEvent)
	observability.FanoutEvents().WithLabelValues("local", "published").Inc()

	if err := f.relay(ctx, roomEvent); err != nil {
		f.logger.Warn().Err(err).Uint("room_id", roomID).Str("event", event).Msg("failed to relay room event")
	}
}

func (f *roomFanout) Subscribe(roomID uint) (<-chan dto.RoomEvent, func()) {
	ch := make(chan dto.RoomEvent, roomSubscriberBuffer)

	f.mu.Lock()
	if _, ok := f.rooms[roomID]; !ok {
		f.rooms[roomID] = make(map[chan dto.RoomEvent]struct{})
	}
	f.rooms[roomID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if subscribers, ok := f.rooms[roomID]; ok {
				delete(subscribers, ch)
				if len(subscribers) == 0 {
					delete(f.rooms, roomID)
				}
			}
			close(ch)
		})
	}

	return ch, cancel
}

func (f *roomFanout) broadcast(event dto.RoomEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.rooms[event.RoomID] {
		select {
		case ch <- event:
		default:
			f.logger.Warn().Uint("room_id", event.RoomID).Str("event", event.Event).Msg("dropping room event for slow subscriber")
		}
	}
}

func (f *roomFanout) relay(ctx context.Context, event dto.RoomEvent) error {
	if !f.useNATS() && !f.useRedis() {
		return nil
	}

	payload, err := json.Marshal(relayedRoomEvent{Source: f.nodeID, Event: event})
	if err != nil {
		return err
	}

	if f.useNATS() {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			observability.FanoutEvents().WithLabelValues("nats", "failed").Inc()
			return fmt.Errorf("nats publish: %w", err)
		}
		observability.FanoutEvents().WithLabelValues("nats", "published").Inc()
		return nil
	}

	if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
		observability.FanoutEvents().WithLabelValues("redis", "failed").Inc()
		return fmt.Errorf("redis publish: %w", err)
	}
	observability.FanoutEvents().WithLabelValues("redis", "published").Inc()
	return nil
}

func (f *roomFanout) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			f.logger.Error().Err(err).Msg("room redis subscription closed")
			return
		}
		f.handleRelayed("redis", []byte(msg.Payload))
	}
}

// consumeNATS subscribes every node, not a queue group, so each node can reach its own websocket clients.
func (f *roomFanout) consumeNATS(ctx context.Context) {
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleRelayed("nats", msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats room subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain room nats subscription")
		}
	}()
}

func (f *roomFanout) handleRelayed(transport string, data []byte) {
	var relayed relayedRoomEvent
	if err := json.Unmarshal(data, &relayed); err != nil {
		f.logger.Warn().Err(err).Str("transport", transport).Msg("invalid room event payload")
		return
	}
	if relayed.Source == f.nodeID {
		return
	}

	observability.FanoutEvents().WithLabelValues(transport, "received").Inc()
	f.broadcast(relayed.Event)
}
