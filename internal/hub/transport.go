package hub

import (
	"context"
	"encoding/json"
	"net/http"

	"homebroker/internal/adapter"
	"homebroker/pkg/signalr"
)

// Transport is the persistent hub link. *signalr.Client satisfies it.
type Transport interface {
	On(method string, handler signalr.Handler)
	OnError(hook func(error))
	Start(ctx context.Context) error
	Invoke(ctx context.Context, method string, args ...any) (json.RawMessage, error)
	Close() error
	// Done is closed once the link is gone, before the error hook fires.
	Done() <-chan struct{}
}

// Dialer builds a fresh, unstarted transport for a session.
type Dialer func(session *adapter.Session) (Transport, error)

// SignalRDialer dials the hub with the session cookies over SignalR.
func SignalRDialer(opt signalr.Option) Dialer {
	return func(session *adapter.Session) (Transport, error) {
		o := opt
		o.Cookies = append(session.HTTPCookies(), opt.Cookies...)
		if o.Header == nil {
			o.Header = http.Header{}
		} else {
			o.Header = o.Header.Clone()
		}
		if o.Header.Get("User-Agent") == "" {
			o.Header.Set("User-Agent", adapter.UserAgent)
		}

		return signalr.New(session.BaseURL, o)
	}
}
