package bus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = DefaultBuffer
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local relay; every client is ours
	},
}

// WSServer relays every text frame to all other connected clients.
type WSServer struct {
	log zerolog.Logger

	mu    sync.Mutex
	peers map[*wsPeer]struct{}
}

type wsPeer struct {
	conn *websocket.Conn
	send chan []byte
}

func NewWSServer(log zerolog.Logger) *WSServer {
	return &WSServer{log: log, peers: map[*wsPeer]struct{}{}}
}

// Peers reports the number of connected clients.
func (s *WSServer) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	p := &wsPeer{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("relay client connected")

	go p.writeLoop()
	defer func() {
		s.mu.Lock()
		delete(s.peers, p)
		close(p.send)
		s.mu.Unlock()
		conn.Close()
		s.log.Debug().Str("remote", r.RemoteAddr).Msg("relay client disconnected")
	}()

	for {
		typ, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		s.relay(p, frame)
	}
}

func (s *WSServer) relay(from *wsPeer, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		if p == from {
			continue
		}
		select {
		case p.send <- frame:
		default:
			s.log.Warn().Msg("relay client too slow, frame dropped")
		}
	}
}

func (p *wsPeer) writeLoop() {
	for frame := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			p.conn.Close()
			// Drain so the relay never blocks on a dead peer.
			for range p.send {
			}
			return
		}
	}
}

// WSTransport is a client of a WSServer.
type WSTransport struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex
	out     chan []byte
	done    chan struct{}
	once    sync.Once
}

var _ Transport = (*WSTransport)(nil)

// DialWS connects to a relay at url (ws:// or wss://).
func DialWS(ctx context.Context, url string, log zerolog.Logger) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	t := &WSTransport{conn: conn, log: log, out: make(chan []byte, DefaultBuffer), done: make(chan struct{})}
	go t.readLoop()
	return t, nil
}

func (t *WSTransport) readLoop() {
	defer close(t.out)
	for {
		typ, frame, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Debug().Err(err).Msg("relay read ended")
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		select {
		case t.out <- frame:
		case <-t.done:
			return
		}
	}
}

func (t *WSTransport) Post(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *WSTransport) Messages() <-chan []byte { return t.out }

func (t *WSTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
