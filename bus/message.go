package bus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/tradejournal/journal"
)

// MessageType is the kind of a cross-context trade message.
type MessageType string

const (
	MsgSet    MessageType = "set"
	MsgCreate MessageType = "create"
	MsgUpdate MessageType = "update"
	MsgDelete MessageType = "delete"
)

// ErrMalformed wraps every rejected frame.
var ErrMalformed = errors.New("malformed message")

// Message is what contexts exchange about trades. TS is unix milliseconds.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Origin  string          `json:"origin,omitempty"`
	TS      int64           `json:"ts,omitempty"`
}

type idPayload struct {
	ID string `json:"id"`
}

func newMessage(t MessageType, v any) (Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s message: %w", t, err)
	}
	return Message{Type: t, Payload: b}, nil
}

// SetMessage replaces the receiver's whole trade list.
func SetMessage(trades []journal.Trade) (Message, error) {
	if trades == nil {
		trades = []journal.Trade{}
	}
	return newMessage(MsgSet, trades)
}

func CreateMessage(t journal.Trade) (Message, error) {
	return newMessage(MsgCreate, t)
}

// UpdateMessage carries a patch; p.ID names the trade.
func UpdateMessage(p journal.TradePatch) (Message, error) {
	if p.ID == "" {
		return Message{}, fmt.Errorf("update message: id is required")
	}
	return newMessage(MsgUpdate, p)
}

func DeleteMessage(id string) (Message, error) {
	if id == "" {
		return Message{}, fmt.Errorf("delete message: id is required")
	}
	return newMessage(MsgDelete, idPayload{ID: id})
}

// Trades decodes a set payload.
func (m Message) Trades() ([]journal.Trade, error) {
	if m.Type != MsgSet {
		return nil, fmt.Errorf("%w: %s message has no trade list", ErrMalformed, m.Type)
	}
	var out []journal.Trade
	if err := json.Unmarshal(m.Payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: set payload is not a list", ErrMalformed)
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

// Trade decodes a create payload.
func (m Message) Trade() (journal.Trade, error) {
	if m.Type != MsgCreate {
		return journal.Trade{}, fmt.Errorf("%w: %s message has no trade", ErrMalformed, m.Type)
	}
	var t journal.Trade
	if err := json.Unmarshal(m.Payload, &t); err != nil {
		return journal.Trade{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if t.ID == "" {
		return journal.Trade{}, fmt.Errorf("%w: trade id is required", ErrMalformed)
	}
	normalize(&t)
	return t, nil
}

// Patch decodes an update payload.
func (m Message) Patch() (journal.TradePatch, error) {
	if m.Type != MsgUpdate {
		return journal.TradePatch{}, fmt.Errorf("%w: %s message has no patch", ErrMalformed, m.Type)
	}
	var p journal.TradePatch
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return journal.TradePatch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.ID == "" {
		return journal.TradePatch{}, fmt.Errorf("%w: patch id is required", ErrMalformed)
	}
	return p, nil
}

// ID returns the trade id a create, update or delete message refers to.
func (m Message) ID() (string, error) {
	var p idPayload
	if m.Type == MsgSet {
		return "", fmt.Errorf("%w: set message has no id", ErrMalformed)
	}
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: id is required", ErrMalformed)
	}
	return p.ID, nil
}

// DecodeMessage parses a frame and checks its payload matches its type.
func DecodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var err error
	switch m.Type {
	case MsgSet:
		_, err = m.Trades()
	case MsgCreate:
		_, err = m.Trade()
	case MsgUpdate:
		_, err = m.Patch()
	case MsgDelete:
		_, err = m.ID()
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

func normalize(t *journal.Trade) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Side == "" {
		t.Side = journal.Long
	}
}
