package bus

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradejournal/internal/fsutil"
)

// DefaultPollInterval is how often a KeyTransport checks its file.
const DefaultPollInterval = 250 * time.Millisecond

// KeyTransport shares the latest frame through a single file. Every
// process polls the file and delivers content it has not seen. Only the
// most recent frame survives, so bursts between polls collapse into one.
type KeyTransport struct {
	path     string
	interval time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	last []byte

	out  chan []byte
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

var _ Transport = (*KeyTransport)(nil)

// NewKeyTransport starts polling path. Whatever the file holds at start is
// taken as already seen.
func NewKeyTransport(path string, interval time.Duration, log zerolog.Logger) (*KeyTransport, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	k := &KeyTransport{
		path:     path,
		interval: interval,
		log:      log,
		out:      make(chan []byte, DefaultBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	k.last = b

	go k.poll()
	return k, nil
}

func (k *KeyTransport) Post(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-k.stop:
		return ErrClosed
	default:
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := fsutil.WriteFileAtomic(k.path, frame); err != nil {
		return err
	}
	k.last = bytes.Clone(frame)
	return nil
}

func (k *KeyTransport) Messages() <-chan []byte { return k.out }

func (k *KeyTransport) Close() error {
	k.once.Do(func() {
		close(k.stop)
		<-k.done
		close(k.out)
	})
	return nil
}

func (k *KeyTransport) poll() {
	defer close(k.done)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
		}

		// Read under the lock so a concurrent Post cannot be mistaken
		// for someone else's write.
		k.mu.Lock()
		b, err := os.ReadFile(k.path)
		changed := err == nil && len(b) > 0 && !bytes.Equal(b, k.last)
		if changed {
			k.last = b
		}
		k.mu.Unlock()

		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			k.log.Debug().Err(err).Str("path", k.path).Msg("read sync key")
		}
		if !changed {
			continue
		}

		select {
		case k.out <- b:
		case <-k.stop:
			return
		}
	}
}

