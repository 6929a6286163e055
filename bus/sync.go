package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sync stamps outgoing messages with this context's origin and filters
// that origin out of what comes back.
type Sync struct {
	t      Transport
	origin string
	log    zerolog.Logger
	now    func() time.Time
}

func NewSync(t Transport, log zerolog.Logger) *Sync {
	return &Sync{t: t, origin: uuid.NewString(), log: log, now: time.Now}
}

// Origin identifies this context on the transport.
func (s *Sync) Origin() string { return s.origin }

// Post sends m best effort. Failures are logged, never returned.
func (s *Sync) Post(ctx context.Context, m Message) {
	m.Origin = s.origin
	m.TS = s.now().UnixMilli()

	b, err := json.Marshal(m)
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(m.Type)).Msg("encode sync message")
		return
	}
	if err := s.t.Post(ctx, b); err != nil {
		s.log.Warn().Err(err).Str("type", string(m.Type)).Msg("post sync message")
	}
}

// Run applies every well-formed message from other contexts until ctx is
// done or the transport closes. Malformed frames and own echoes are dropped.
func (s *Sync) Run(ctx context.Context, apply func(Message) error) error {
	msgs := s.t.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-msgs:
			if !ok {
				return nil
			}
			m, err := DecodeMessage(b)
			if err != nil {
				s.log.Debug().Err(err).Msg("dropping sync frame")
				continue
			}
			if m.Origin == s.origin {
				continue
			}
			if err := apply(m); err != nil {
				s.log.Warn().Err(err).Str("type", string(m.Type)).Msg("apply sync message")
			}
		}
	}
}

func (s *Sync) Close() error {
	return s.t.Close()
}
