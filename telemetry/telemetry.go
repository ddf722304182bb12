// Package telemetry publishes machine transitions to a Redis pub/sub channel
// so a supervisor can follow a controller remotely.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/librescoot/loopfsm"
)

// DefaultChannel is used when no channel name is configured
const DefaultChannel = "loopfsm:transitions"

// Publisher is a loopfsm.Observer that publishes every transition
type Publisher struct {
	client  redis.UniversalClient
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

var _ loopfsm.Observer = (*Publisher)(nil)

// Option is a functional option for configuring a Publisher
type Option func(*Publisher)

// WithChannel sets the pub/sub channel name
func WithChannel(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.channel = name
		}
	}
}

// WithTimeout bounds each publish
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger used to report failed publishes
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher on client
func NewPublisher(client redis.UniversalClient, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		timeout: 200 * time.Millisecond,
		logger:  loopfsm.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect creates a client for addr and checks it answers PING
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Channel returns the pub/sub channel name
func (p *Publisher) Channel() string {
	return p.channel
}

// OnTransition publishes rec, logging instead of returning errors
func (p *Publisher) OnTransition(rec loopfsm.TransitionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.Publish(ctx, rec); err != nil {
		p.logger.Warn("telemetry publish failed", "machine", rec.MachineID, "seq", rec.Seq, "error", err)
	}
}

// Publish sends one record
func (p *Publisher) Publish(ctx context.Context, rec loopfsm.TransitionRecord) error {
	payload, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Encode is the wire format of a published record
func Encode(rec loopfsm.TransitionRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

// Decode parses a payload produced by Encode
func Decode(data []byte) (loopfsm.TransitionRecord, error) {
	var rec loopfsm.TransitionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return loopfsm.TransitionRecord{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return rec, nil
}

// Subscribe streams decoded records published on channel until ctx is done.
// Undecodable payloads are skipped.
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string) (<-chan loopfsm.TransitionRecord, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan loopfsm.TransitionRecord)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				rec, err := Decode([]byte(msg.Payload))
				if err != nil {
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
