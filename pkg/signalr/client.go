package signalr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"homebroker/pkg/exception"
)

// Client is a classic ASP.NET SignalR hub client over WebSockets.
//
// Handlers registered with On run on the read goroutine, one at a time, in
// arrival order. A read failure that was not caused by Close is fatal: pending
// invocations fail and the error hook fires once.
type Client struct {
	baseURL string
	opt     Option
	http    *http.Client
	jar     http.CookieJar
	router  *router

	conn      *websocket.Conn
	token     string
	keepAlive time.Duration
	writeMu   sync.Mutex

	nextID    atomic.Uint64
	pendingMu sync.Mutex
	pending   map[string]chan invocationResult

	onError atomic.Pointer[func(error)]

	started atomic.Bool
	closing atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New builds a client for the hub served under baseURL. Nothing is sent until Start.
func New(baseURL string, opt Option) (*Client, error) {
	opt = opt.withDefaults()
	if opt.Hub == "" {
		return nil, errors.New("signalr: empty hub name")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "new cookie jar")
	}
	if len(opt.Cookies) != 0 {
		jar.SetCookies(base, opt.Cookies)
	}

	httpClient := &http.Client{Timeout: opt.HandshakeTimeout}
	if opt.HTTPClient != nil {
		cp := *opt.HTTPClient
		httpClient = &cp
	}
	httpClient.Jar = jar

	return &Client{
		baseURL: baseURL,
		opt:     opt,
		http:    httpClient,
		jar:     jar,
		router:  newRouter(),
		pending: make(map[string]chan invocationResult),
		done:    make(chan struct{}),
	}, nil
}

// On registers the handler of a server push method. A nil handler removes it.
func (c *Client) On(method string, handler Handler) {
	c.router.set(method, handler)
}

// OnError registers the hook called once when the connection fails.
func (c *Client) OnError(hook func(error)) {
	if hook == nil {
		c.onError.Store(nil)
		return
	}
	c.onError.Store(&hook)
}

// Start negotiates, opens the websocket, waits for the init message and
// confirms the transport with the start request.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() || c.closing.Load() {
		return exception.ErrSignalRConnectionClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("signalr: already started")
	}

	if err := c.handshake(ctx); err != nil {
		c.started.Store(false)
		return err
	}

	go c.readLoop()

	return nil
}

func (c *Client) handshake(ctx context.Context) error {
	nego, err := c.negotiate(ctx)
	if err != nil {
		return err
	}

	connectURL, err := c.endpoint("connect", nego.ConnectionToken)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opt.HandshakeTimeout,
		Jar:              c.jar,
	}
	if c.http.Transport != nil {
		if t, ok := c.http.Transport.(*http.Transport); ok {
			dialer.TLSClientConfig = t.TLSClientConfig
		}
	}

	conn, resp, err := dialer.DialContext(ctx, socketURL(connectURL).String(), c.opt.Header.Clone())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return errors.Wrap(exception.ErrSignalRHandshake, err.Error())
	}

	if err := c.awaitInit(conn); err != nil {
		_ = conn.Close()
		return err
	}

	if err := c.start(ctx, nego.ConnectionToken); err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.token = nego.ConnectionToken
	if nego.KeepAliveTimeout != nil && *nego.KeepAliveTimeout > 0 {
		c.keepAlive = time.Duration(*nego.KeepAliveTimeout*float64(time.Second)) + c.opt.KeepAliveGrace
	}

	logs.Infof("signalr connected, hub: %s, connection id: %s", c.opt.Hub, nego.ConnectionID)

	return nil
}

// awaitInit reads frames until the server marks the connection initialized.
// Pushes that arrive earlier are routed normally.
func (c *Client) awaitInit(conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(c.opt.HandshakeTimeout)); err != nil {
		return errors.Wrap(exception.ErrSignalRHandshake, err.Error())
	}
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(exception.ErrSignalRHandshake, err.Error())
		}

		var msg serverMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			return errors.Wrap(exception.ErrSignalRProtocol, err.Error())
		}
		c.dispatchPushes(msg)
		if msg.Initialized == 1 {
			return nil
		}
	}
}

// Invoke calls a hub method and waits for its result or for ctx.
func (c *Client) Invoke(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	if !c.started.Load() || c.conn == nil {
		return nil, exception.ErrSignalRNotStarted
	}

	id := strconv.FormatUint(c.nextID.Add(1)-1, 10)
	ch := make(chan invocationResult, 1)

	c.pendingMu.Lock()
	if c.closed.Load() {
		c.pendingMu.Unlock()
		return nil, exception.ErrSignalRConnectionClosed
	}
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if args == nil {
		args = []any{}
	}
	payload, err := sonic.ConfigFastest.Marshal(hubInvocation{Hub: c.opt.Hub, Method: method, Arguments: args, ID: id})
	if err != nil {
		c.forget(id)
		return nil, errors.Wrap(err, "marshal invocation")
	}

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, errors.Wrap(err, "write invocation").With("method", method)
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// readLoop owns the socket reads. On a fatal error done is closed before the
// error hook runs, so the hook may call Close.
func (c *Client) readLoop() {
	err := c.read()

	c.failPending()
	close(c.done)

	c.report(err)
}

func (c *Client) read() error {
	for {
		if c.keepAlive > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.keepAlive))
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg serverMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			return errors.Wrap(exception.ErrSignalRProtocol, err.Error())
		}

		if msg.InvokeID != "" {
			c.resolve(msg)
			continue
		}
		c.dispatchPushes(msg)
	}
}

func (c *Client) dispatchPushes(msg serverMessage) {
	for _, m := range msg.Messages {
		c.router.route(m)
	}
}

func (c *Client) resolve(msg serverMessage) {
	c.pendingMu.Lock()
	ch, ok := c.pending[msg.InvokeID]
	delete(c.pending, msg.InvokeID)
	c.pendingMu.Unlock()

	if !ok {
		return
	}

	if msg.Error != "" {
		ch <- invocationResult{err: errors.Wrap(exception.ErrSignalRInvoke, msg.Error)}
		return
	}
	ch <- invocationResult{result: msg.Result}
}

// report hands a read failure to the error hook. Errors caused by Close are not reported.
func (c *Client) report(err error) {
	if c.closing.Load() {
		return
	}

	logs.Errorf("signalr connection lost, hub: %s, err: %+v", c.opt.Hub, err)
	if hook := c.onError.Load(); hook != nil {
		(*hook)(errors.Wrap(exception.ErrSignalRConnectionClosed, err.Error()))
	}
}

// failPending marks the client closed and fails every waiting invocation.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	c.closed.Store(true)
	pending := c.pending
	c.pending = make(map[string]chan invocationResult)
	c.pendingMu.Unlock()

	for _, ch := range pending {
		ch <- invocationResult{err: exception.ErrSignalRConnectionClosed}
	}
}

// Done is closed when the read loop stops reading, before the error hook fires.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close aborts the connection on the server, closes the socket and waits for
// the read loop. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.closing.Store(true)
		if !c.started.Load() || c.conn == nil {
			c.closed.Store(true)
			close(c.done)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultAbortTimeout)
		if abortErr := c.abort(ctx, c.token); abortErr != nil {
			logs.Warnf("signalr abort, hub: %s, err: %+v", c.opt.Hub, abortErr)
		}
		cancel()

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		<-c.done
	})

	return err
}
