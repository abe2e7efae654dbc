package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/logging"
	"github.com/nibzard/taxocard/internal/validator"
)

// ErrRejected is wrapped by every *RejectedError.
var ErrRejected = errors.New("card rejected")

// ErrUnknownSession is returned for a session this Manager did not open, or
// one that was closed.
var ErrUnknownSession = errors.New("unknown session")

// RejectedError reports a card the validator refused. Nothing was stored.
type RejectedError struct {
	Key    Key
	Result validator.Result
}

func (e *RejectedError) Error() string {
	if e.Key == (Key{}) {
		return fmt.Sprintf("card rejected with %d violation(s)", len(e.Result.Violations))
	}
	return fmt.Sprintf("card %s rejected with %d violation(s)", e.Key, len(e.Result.Violations))
}

// Unwrap returns ErrRejected.
func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// Session is what an editor works with: the stored card, if any, and the
// configuration snapshot taken when the session was opened. Only Open
// creates usable sessions. Save checks against the Manager's own record of
// the key and snapshot, never against values carried back by the editor.
type Session struct {
	id     uint64
	key    Key
	config editconfig.Snapshot
	card   []byte
}

// Key names the card being edited.
func (s *Session) Key() Key { return s.key }

// Config is the edit configuration frozen when the session was opened.
func (s *Session) Config() editconfig.Snapshot { return s.config }

// Card is the last stored version of the card, nil for a new card.
func (s *Session) Card() []byte { return s.card }

// issued is the Manager's copy of an open session.
type issued struct {
	key    Key
	config editconfig.Snapshot
}

// Manager validates cards before they reach the card store.
type Manager struct {
	configs ConfigStore
	cards   CardStore
	logger  *log.Logger
	metrics *Metrics
	vopts   []validator.Option

	mu       sync.Mutex
	locks    map[Key]*sync.Mutex
	sessions map[uint64]issued
	nextID   uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for gate decisions.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics updated on every decision.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithValidatorOptions passes options to every validation.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(m *Manager) {
		m.vopts = append(m.vopts, opts...)
	}
}

// New creates a Manager reading configurations from configs and storing
// accepted cards in cards.
func New(configs ConfigStore, cards CardStore, opts ...Option) *Manager {
	m := &Manager{
		configs:  configs,
		cards:    cards,
		logger:   logging.Discard(),
		locks:    make(map[Key]*sync.Mutex),
		sessions: make(map[uint64]issued),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts an editing session for key. A card that was never stored
// gives a session with a nil Card. Close releases the session.
func (m *Manager) Open(ctx context.Context, key Key) (*Session, error) {
	if err := key.Check(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	snap, err := m.configs.Snapshot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	if snap.TaxoID() != key.TaxoID || snap.InstrumentID() != key.InstrumentID {
		return nil, fmt.Errorf("open %s: configuration is for %d_%s", key, snap.TaxoID(), snap.InstrumentID())
	}
	data, err := m.cards.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.sessions[id] = issued{key: key, config: snap}
	m.mu.Unlock()

	m.logger.Debug("Session opened", "card", key.String(), "stored", data != nil)
	return &Session{id: id, key: key, config: snap, card: data}, nil
}

// Close forgets s. Saving through it afterwards fails with ErrUnknownSession.
func (m *Manager) Close(s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()
}

// Save validates data against the configuration issued with the session and
// stores it under the issued key when accepted. A rejection returns a
// *RejectedError and leaves the store untouched. On success the session's
// Card is replaced by data.
func (m *Manager) Save(ctx context.Context, s *Session, data []byte) (validator.Result, error) {
	if s == nil {
		return validator.Result{}, errors.New("save: nil session")
	}
	m.mu.Lock()
	iss, ok := m.sessions[s.id]
	m.mu.Unlock()
	if !ok {
		return validator.Result{}, fmt.Errorf("save: %w", ErrUnknownSession)
	}
	if s.key != iss.key {
		return validator.Result{}, fmt.Errorf("save: session for %s was retargeted to %s", iss.key, s.key)
	}
	key := iss.key

	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	result := m.validate(iss.config, data)
	if m.metrics != nil {
		m.metrics.ObserveResult(start, result)
	}
	logging.LogResult(m.logger, key.CardFileName(), result)
	if !result.Accepted {
		return result, &RejectedError{Key: key, Result: result}
	}

	if err := m.cards.Put(ctx, key, data); err != nil {
		if m.metrics != nil {
			m.metrics.ObserveError()
		}
		return result, fmt.Errorf("store %s: %w", key, err)
	}
	s.card = data
	return result, nil
}

// Submit saves a card without an open session. The card's own taxoid and
// instrumentid select the stored configuration it is checked against.
func (m *Manager) Submit(ctx context.Context, data []byte) (validator.Result, error) {
	doc, err := card.Parse(data)
	if err != nil {
		result := validator.Malformed("card", err)
		if m.metrics != nil {
			m.metrics.ObserveResult(time.Now(), result)
		}
		logging.LogResult(m.logger, "submitted card", result)
		return result, &RejectedError{Result: result}
	}
	key, err := keyOf(doc)
	if err == nil {
		var s *Session
		if s, err = m.Open(ctx, key); err == nil {
			defer m.Close(s)
			return m.Save(ctx, s, data)
		}
	}
	if m.metrics != nil {
		m.metrics.ObserveError()
	}
	return validator.Result{}, fmt.Errorf("submit: %w", err)
}

func (m *Manager) validate(snap editconfig.Snapshot, data []byte) validator.Result {
	doc, err := card.Parse(data)
	if err != nil {
		return validator.Malformed("card", err)
	}
	return validator.Validate(snap, doc, m.vopts...)
}

func (m *Manager) lockFor(key Key) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = new(sync.Mutex)
		m.locks[key] = l
	}
	return l
}

// keyOf reads the identifiers a card claims for itself.
func keyOf(doc *card.Document) (Key, error) {
	taxo, instr, err := doc.Identifiers()
	if err != nil {
		return Key{}, err
	}
	key := Key{TaxoID: taxo, InstrumentID: instr}
	if err := key.Check(); err != nil {
		return Key{}, err
	}
	return key, nil
}
