package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/librescoot/loopfsm"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEncodeDecode(t *testing.T) {
	rec := loopfsm.TransitionRecord{MachineID: "m1", Seq: 4, From: "Yellow", To: "Red", At: epoch}

	data, err := Encode(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"machine_id":"m1","seq":4,"from":"Yellow","to":"Red","at":"2024-01-01T00:00:00Z"}`, string(data))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec.Seq, got.Seq)
	assert.Equal(t, rec.To, got.To)
	assert.True(t, rec.At.Equal(got.At))
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestPublisherOptions(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	p := NewPublisher(client)
	assert.Equal(t, DefaultChannel, p.Channel())

	p = NewPublisher(client, WithChannel("robot:transitions"), WithChannel(""))
	assert.Equal(t, "robot:transitions", p.Channel())
}

// PublisherSuite needs a live server; set REDIS_ADDR to run it
type PublisherSuite struct {
	suite.Suite
	client *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func TestPublisherSuite(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	suite.Run(t, &PublisherSuite{client: client})
}

func (s *PublisherSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *PublisherSuite) TearDownTest() {
	s.cancel()
}

func (s *PublisherSuite) TestMachineTransitionsArePublished() {
	channel := "loopfsm:test:" + s.T().Name()
	records, err := Subscribe(s.ctx, s.client, channel)
	s.Require().NoError(err)

	clock := loopfsm.NewManualClock(epoch)
	m := loopfsm.New(
		loopfsm.WithID("published"),
		loopfsm.WithClock(clock),
		loopfsm.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		loopfsm.WithObserver(NewPublisher(s.client, WithChannel(channel))),
	)
	s.Require().NoError(m.TransitionTo(loopfsm.NewState("Green")))
	clock.Advance(3 * time.Second)
	s.Require().NoError(m.TransitionTo(loopfsm.NewState("Yellow")))

	var got []loopfsm.TransitionRecord
	for len(got) < 2 {
		select {
		case rec := <-records:
			got = append(got, rec)
		case <-s.ctx.Done():
			s.FailNow("timed out waiting for records")
		}
	}

	s.Equal("published", got[0].MachineID)
	s.Equal("Green", got[0].To)
	s.Equal("Green", got[1].From)
	s.Equal("Yellow", got[1].To)
	s.Equal(uint64(2), got[1].Seq)
}

func (s *PublisherSuite) TestSubscribeSkipsGarbage() {
	channel := "loopfsm:test:" + s.T().Name()
	records, err := Subscribe(s.ctx, s.client, channel)
	s.Require().NoError(err)

	s.Require().NoError(s.client.Publish(s.ctx, channel, "garbage").Err())
	p := NewPublisher(s.client, WithChannel(channel))
	s.Require().NoError(p.Publish(s.ctx, loopfsm.TransitionRecord{MachineID: "m", Seq: 1, To: "Red", At: epoch}))

	select {
	case rec := <-records:
		s.Equal("Red", rec.To)
	case <-s.ctx.Done():
		s.FailNow("timed out waiting for record")
	}
}
