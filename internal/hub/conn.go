package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"homebroker/internal/adapter"
	"homebroker/internal/ingest"
	"homebroker/internal/obs"
	"homebroker/pkg/exception"
	"homebroker/pkg/signalr"
)

const DefaultHubName = "stockpriceshub"

// Remote procedures.
const (
	MethodJoinGroup = "JoinGroup"
	MethodQuitGroup = "QuitGroup"
)

// Push events. The start and incremental variants of a stream carry the same payload.
const (
	EventBroadcast      = "broadcast"
	EventStartPortfolio = "sendStartStockFavoritos"
	EventPortfolio      = "sendStockFavoritos"
	EventStartOrderBook = "sendStartStockPuntas"
	EventOrderBook      = "sendStockPuntas"
)

// Config tunes a Conn. Zero values pick defaults.
type Config struct {
	// Dial builds the transport. Defaults to SignalR on the session base url.
	Dial Dialer
	// Interval is the pipeline drain period.
	Interval time.Duration
	Metrics  *obs.Metrics
}

// Conn is the hub connection. It owns the transport and the ingestion pipeline
// fed by the push handlers.
//
// Data callbacks run on the pipeline goroutine and must not call Disconnect,
// which joins that goroutine. OnOpen and OnClose run on the caller of Connect
// and Disconnect. OnError for a lost connection runs on the transport read
// goroutine after the pipeline stopped, so it may call Disconnect.
type Conn struct {
	session   *adapter.Session
	dial      Dialer
	callbacks *ingest.Callbacks
	pipeline  *ingest.Pipeline
	metrics   *obs.Metrics

	mu         sync.Mutex
	transport  Transport
	assigned   bool
	connecting bool
	connected  bool
}

// New builds a disconnected hub connection.
func New(session *adapter.Session, callbacks *ingest.Callbacks, cfg Config) *Conn {
	if callbacks == nil {
		callbacks = &ingest.Callbacks{}
	}
	if cfg.Dial == nil {
		cfg.Dial = SignalRDialer(signalr.Option{Hub: DefaultHubName})
	}

	return &Conn{
		session:   session,
		dial:      cfg.Dial,
		callbacks: callbacks,
		pipeline:  ingest.NewPipeline(callbacks, cfg.Interval, cfg.Metrics),
		metrics:   cfg.Metrics,
	}
}

// Connect opens the transport, registers the push handlers and starts the
// pipeline. It blocks until the handshake succeeds or fails.
func (c *Conn) Connect(ctx context.Context) error {
	if !c.session.IsLoggedIn() {
		return exception.ErrNotLoggedIn
	}

	c.mu.Lock()
	if c.connected || c.connecting {
		c.mu.Unlock()
		return exception.ErrAlreadyConnected
	}
	c.connecting = true
	c.mu.Unlock()

	transport, err := c.open(ctx)

	// Done is checked under c.mu: a transport lost before the commit is seen
	// here, one lost after it is seen by lost.
	c.mu.Lock()
	c.connecting = false
	dead := err == nil && isDone(transport)
	if err == nil && !dead {
		c.transport = transport
		c.assigned = true
		c.connected = true
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if dead {
		c.pipeline.Stop()
		_ = transport.Close()
		return fmt.Errorf("%w: hub transport lost while connecting", exception.ErrNotConnected)
	}

	c.metrics.SetConnected(true)
	logs.Infof("hub connected, base url: %s", c.session.BaseURL)

	if err := c.callbacks.EmitOpen(); err != nil {
		c.callbacks.ReportError(err, false)
	}

	return nil
}

// open dials and starts a transport and the pipeline without holding c.mu.
func (c *Conn) open(ctx context.Context) (Transport, error) {
	transport, err := c.dial(c.session)
	if err != nil {
		return nil, errors.Wrap(err, "dial hub")
	}
	if transport == nil {
		return nil, exception.ErrNilTransport
	}

	c.register(transport)

	if err := transport.Start(ctx); err != nil {
		_ = transport.Close()
		return nil, errors.Wrap(err, "start hub transport")
	}

	if err := c.pipeline.Start(context.WithoutCancel(ctx)); err != nil {
		_ = transport.Close()
		return nil, errors.Wrap(err, "start pipeline")
	}

	return transport, nil
}

func isDone(t Transport) bool {
	select {
	case <-t.Done():
		return true
	default:
		return false
	}
}

func (c *Conn) register(t Transport) {
	t.On(EventBroadcast, c.handle(c.pipeline.PushBoard))
	t.On(EventStartPortfolio, c.handle(c.pipeline.PushPortfolio))
	t.On(EventPortfolio, c.handle(c.pipeline.PushPortfolio))
	t.On(EventStartOrderBook, c.handle(c.pipeline.PushOrderBook))
	t.On(EventOrderBook, c.handle(c.pipeline.PushOrderBook))
	t.OnError(func(err error) { c.lost(t, err) })
}

// handle decodes every push argument into records and enqueues them.
func (c *Conn) handle(push func(...adapter.RawRecord)) signalr.Handler {
	return func(args []json.RawMessage) {
		for _, arg := range args {
			records, err := adapter.DecodeRecords(arg)
			if err != nil {
				logs.Warnf("decode hub push, err: %+v", err)
				c.callbacks.ReportError(errors.Wrap(err, "decode hub push"), false)
				continue
			}
			push(records...)
		}
	}
}

// lost handles a fatal transport error. The pipeline stops right away; the
// connection stays marked open until Disconnect. A transport that was never
// committed by Connect is left to Connect, which sees it through Done.
func (c *Conn) lost(t Transport, err error) {
	c.mu.Lock()
	current := c.connected && c.transport == t
	c.mu.Unlock()

	if !current {
		logs.Warnf("hub transport lost before connect completed, err: %+v", err)
		return
	}

	logs.Errorf("hub connection lost, err: %+v", err)
	c.pipeline.Stop()
	c.metrics.SetConnected(false)
	c.callbacks.ReportError(err, true)
}

// Disconnect closes the transport, stops the pipeline and fires OnClose.
// No callback other than OnClose fires once it starts returning.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return exception.ErrNotConnected
	}
	transport := c.transport
	c.transport = nil
	c.connected = false
	c.mu.Unlock()

	if err := transport.Close(); err != nil {
		logs.Warnf("close hub transport, err: %+v", err)
	}
	c.pipeline.Stop()
	c.metrics.SetConnected(false)
	logs.Info("hub disconnected")

	if err := c.callbacks.EmitClose(); err != nil {
		c.callbacks.ReportError(err, false)
	}

	return nil
}

func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// JoinGroup subscribes the connection to a hub group.
func (c *Conn) JoinGroup(ctx context.Context, name string) error {
	return c.invoke(ctx, MethodJoinGroup, name)
}

// QuitGroup leaves a hub group.
func (c *Conn) QuitGroup(ctx context.Context, name string) error {
	return c.invoke(ctx, MethodQuitGroup, name)
}

func (c *Conn) invoke(ctx context.Context, method, group string) error {
	transport, err := c.active()
	if err != nil {
		return err
	}

	if _, err := transport.Invoke(ctx, method, group); err != nil {
		return errors.Wrap(err, "invoke "+method).With("group", group)
	}

	return nil
}

// active returns the open transport or the reason there is none.
func (c *Conn) active() (Transport, error) {
	if !c.session.IsLoggedIn() {
		return nil, exception.ErrNotLoggedIn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.assigned {
		return nil, exception.ErrNotAssigned
	}
	if !c.connected {
		return nil, exception.ErrNotConnected
	}
	return c.transport, nil
}
