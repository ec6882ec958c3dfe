package telemetry

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"kowaiquest/internal/logger"
)

// publishTimeout bounds how long a Track call may wait on Redis
const publishTimeout = 2 * time.Second

// RedisSink publishes events as JSON on a pub/sub channel
type RedisSink struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisSink publishes to channel, defaulting to "kowaiquest.events"
func NewRedisSink(rdb *goredis.Client, channel string, log *logger.Logger) *RedisSink {
	if channel == "" {
		channel = "kowaiquest.events"
	}
	return &RedisSink{
		log:     log.With("service", "RedisTelemetry"),
		rdb:     rdb,
		channel: channel,
	}
}

func (s *RedisSink) Track(ctx context.Context, e Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		s.log.Warn("failed to encode telemetry event", "event", e.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		s.log.Warn("failed to publish telemetry event", "event", e.Name, "error", err)
	}
}

// Subscribe forwards events from the channel to onEvent until ctx is done
func (s *RedisSink) Subscribe(ctx context.Context, onEvent func(Event)) error {
	sub := s.rdb.Subscribe(ctx, s.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
					s.log.Warn("bad telemetry payload", "error", err)
					continue
				}
				onEvent(e)
			}
		}
	}()
	return nil
}
