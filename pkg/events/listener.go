package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/program/pump"
)

const (
	readLimitBytes = 16 << 20
	writeTimeout   = 5 * time.Second
)

// Meta describes the transaction an event came from.
type Meta struct {
	Signature solana.Signature
	Slot      uint64
	// Failed is set when the transaction errored; its events were still
	// logged but did not take effect.
	Failed bool
}

// HandlerID identifies a registered handler.
type HandlerID uint64

// Listener streams pump events over a logsSubscribe websocket and dispatches
// them to typed handlers. It reconnects until its context ends.
type Listener struct {
	url        string
	program    solana.PublicKey
	commitment solanarpc.CommitmentType
	log        zerolog.Logger

	mu       sync.Mutex
	next     HandlerID
	handlers map[HandlerID]func(Event, Meta)
}

// Option configures a Listener.
type Option func(*Listener)

// WithCommitment sets the subscription commitment.
func WithCommitment(c solanarpc.CommitmentType) Option {
	return func(l *Listener) { l.commitment = c }
}

// WithLogger sets the listener logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Listener) { l.log = log }
}

// WithProgram overrides the program whose logs are subscribed.
func WithProgram(program solana.PublicKey) Option {
	return func(l *Listener) { l.program = program }
}

// NewListener creates a listener for the websocket endpoint wsURL.
func NewListener(wsURL string, opts ...Option) *Listener {
	l := &Listener{
		url:        wsURL,
		program:    pump.ProgramKey,
		commitment: solanarpc.CommitmentConfirmed,
		log:        zerolog.Nop(),
		handlers:   make(map[HandlerID]func(Event, Meta)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// On registers fn for events of type T.
//
// Example:
//
//	events.On(l, func(e events.TradeEvent, m events.Meta) { ... })
func On[T Event](l *Listener, fn func(T, Meta)) HandlerID {
	return l.add(func(e Event, m Meta) {
		if v, ok := e.(T); ok {
			fn(v, m)
		}
	})
}

// OnAny registers fn for every event.
func (l *Listener) OnAny(fn func(Event, Meta)) HandlerID {
	return l.add(fn)
}

func (l *Listener) add(fn func(Event, Meta)) HandlerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.handlers[l.next] = fn
	return l.next
}

// Remove unregisters a handler. It reports whether id was registered.
func (l *Listener) Remove(id HandlerID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.handlers[id]
	delete(l.handlers, id)
	return ok
}

// Dispatch delivers ev to every handler registered at call time.
func (l *Listener) Dispatch(ev Event, meta Meta) {
	l.mu.Lock()
	fns := make([]func(Event, Meta), 0, len(l.handlers))
	for _, fn := range l.handlers {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		l.call(fn, ev, meta)
	}
}

func (l *Listener) call(fn func(Event, Meta), ev Event, meta Meta) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Str("kind", string(ev.Kind())).Msg("event handler panicked")
		}
	}()
	fn(ev, meta)
}

// Run streams until ctx ends, reconnecting with exponential backoff. It
// returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = 30 * time.Second
	for {
		started := time.Now()
		err := l.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > time.Minute {
			policy.Reset()
		}
		wait := policy.NextBackOff()
		l.log.Warn().Err(err).Dur("retry_in", wait).Msg("event stream disconnected")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type logsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string          `json:"signature"`
				Err       json.RawMessage `json:"err"`
				Logs      []string        `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (l *Listener) stream(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.url, err)
	}
	defer conn.Close()
	conn.SetReadLimit(readLimitBytes)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{l.program.String()}},
			map[string]interface{}{"commitment": l.commitment},
		},
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	l.log.Info().Str("url", l.url).Str("program", l.program.String()).Msg("subscribed to program logs")

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var msg logsNotification
		if err := json.Unmarshal(payload, &msg); err != nil {
			l.log.Debug().Err(err).Msg("skipping malformed message")
			continue
		}
		if msg.Error != nil {
			return fmt.Errorf("subscription error %d: %s", msg.Error.Code, msg.Error.Message)
		}
		if msg.Method != "logsNotification" {
			continue
		}
		l.handle(msg)
	}
}

func (l *Listener) handle(msg logsNotification) {
	value := msg.Params.Result.Value
	meta := Meta{
		Slot:   msg.Params.Result.Context.Slot,
		Failed: len(value.Err) > 0 && string(value.Err) != "null",
	}
	if sig, err := solana.SignatureFromBase58(value.Signature); err == nil {
		meta.Signature = sig
	}
	for _, ev := range ParseLogs(value.Logs) {
		l.Dispatch(ev, meta)
	}
}
