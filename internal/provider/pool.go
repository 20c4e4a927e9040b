package provider

import (
	"errors"
	"sync"

	"google.golang.org/api/googleapi"

	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
)

// ErrKeysExhausted is returned when every credential in the pool has been
// rejected. It is a broad failure (search is down, not just one call), so
// the pool also closes its Exhausted channel for banner-style notification.
var ErrKeysExhausted = errors.New("provider: all api keys exhausted")

// Pool owns the ordered credential list and the rotation cursor. Process
// lifetime only; nothing is persisted.
type Pool struct {
	mu     sync.Mutex
	keys   []string
	cursor int

	exhausted chan struct{}
	once      sync.Once
}

// NewPool creates a pool over the given keys, in priority order.
func NewPool(keys []string) *Pool {
	return &Pool{
		keys:      keys,
		exhausted: make(chan struct{}),
	}
}

// Len returns the number of credentials.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Cursor returns the current rotation cursor index.
func (p *Pool) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return 0
	}
	return p.cursor % len(p.keys)
}

// Exhausted is closed once the whole pool has failed. Intended for a
// process-wide banner, distinct from per-call errors.
func (p *Pool) Exhausted() <-chan struct{} {
	return p.exhausted
}

func (p *Pool) key() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys[p.cursor%len(p.keys)]
}

func (p *Pool) rotate() {
	p.mu.Lock()
	p.cursor++
	next := p.cursor % len(p.keys)
	p.mu.Unlock()
	logging.L().Info("rotating api key", zap.Int("key_index", next))
}

func (p *Pool) markExhausted() {
	p.once.Do(func() { close(p.exhausted) })
}

// Do runs fn with the current credential, retrying with the next one on
// quota-class failures (HTTP 400/403/429) up to once per key. Any other
// error aborts immediately without rotating. A fully failed pool yields
// ErrKeysExhausted.
func (p *Pool) Do(fn func(key string) error) error {
	n := p.Len()
	if n == 0 {
		p.markExhausted()
		return ErrKeysExhausted
	}

	for attempts := 0; attempts < n; attempts++ {
		err := fn(p.key())
		if err == nil {
			return nil
		}
		if !isKeyError(err) {
			return err
		}
		logging.L().Warn("api key rejected", zap.Int("key_index", p.Cursor()), zap.Error(err))
		p.rotate()
	}

	p.markExhausted()
	return ErrKeysExhausted
}

// isKeyError reports whether the error means the credential itself is
// invalid, over quota, or rate limited.
func isKeyError(err error) bool {
	var ge *googleapi.Error
	if !errors.As(err, &ge) {
		return false
	}
	switch ge.Code {
	case 400, 403, 429:
		return true
	default:
		return false
	}
}
