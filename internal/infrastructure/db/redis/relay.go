package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
)

const (
	defaultChannel = "freelance:bus"
	publishTimeout = 2 * time.Second
)

var errEmptyEvent = errors.New("relay message has no event")

// relayMessage is what travels over the Redis channel.
type relayMessage struct {
	Origin string `json:"origin"`
	Event  string `json:"event"`
}

// Relay extends the local bus across instances. Publish delivers locally and
// forwards to Redis; Run republishes events from other instances locally.
type Relay struct {
	client     *redis.Client
	channel    string
	local      bus.Publisher
	instanceID string
	log        zerolog.Logger
}

func NewRelay(client *redis.Client, channel string, local bus.Publisher, log zerolog.Logger) *Relay {
	if channel == "" {
		channel = defaultChannel
	}
	return &Relay{
		client:     client,
		channel:    channel,
		local:      local,
		instanceID: uuid.NewString(),
		log:        log,
	}
}

// InstanceID identifies this process on the channel.
func (r *Relay) InstanceID() string {
	return r.instanceID
}

// Publish delivers event to local subscribers, then announces it to other
// instances. A Redis failure is logged; local delivery has already happened.
func (r *Relay) Publish(event string) {
	r.local.Publish(event)
	metrics.BusPublishedTotal.WithLabelValues(bus.Unowned(event), "local").Inc()

	payload, err := encodeRelayMessage(r.instanceID, event)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("failed to encode relay message")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn().Err(err).Str("event", event).Msg("failed to relay event")
	}
}

// Run subscribes to the channel until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info().Str("channel", r.channel).Str("instance_id", r.instanceID).Msg("bus relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *Relay) handle(payload string) {
	m, err := decodeRelayMessage(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("ignoring malformed relay message")
		return
	}
	if m.Origin == r.instanceID {
		return
	}
	r.local.Publish(m.Event)
	metrics.BusPublishedTotal.WithLabelValues(bus.Unowned(m.Event), "remote").Inc()
}

func encodeRelayMessage(origin, event string) (string, error) {
	b, err := json.Marshal(relayMessage{Origin: origin, Event: event})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRelayMessage(payload string) (relayMessage, error) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return m, err
	}
	if m.Event == "" {
		return m, errEmptyEvent
	}
	return m, nil
}
