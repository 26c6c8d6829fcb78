package signalr

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// ProtocolVersion is the client protocol announced on every request.
	ProtocolVersion = "1.5"
	// DefaultPath is where ASP.NET mounts the SignalR endpoints.
	DefaultPath = "/signalr"

	DefaultKeepAliveGrace   = 10 * time.Second
	DefaultHandshakeTimeout = 15 * time.Second
	DefaultAbortTimeout     = 3 * time.Second

	transportWebSockets = "webSockets"
)

// Option configures a Client.
type Option struct {
	// Hub is the hub name every invocation targets.
	Hub string
	// Path is the SignalR mount path. Defaults to DefaultPath.
	Path string
	// Cookies are attached to negotiate, connect, start and abort requests.
	Cookies []*http.Cookie
	// Header is sent on every HTTP request and on the websocket handshake.
	Header http.Header
	// KeepAliveGrace is added to the server keep-alive timeout to build the read deadline.
	KeepAliveGrace time.Duration
	// HandshakeTimeout bounds the websocket upgrade and the wait for the init message.
	HandshakeTimeout time.Duration
	// HTTPClient is used for negotiate, start and abort. Its Jar is replaced.
	HTTPClient *http.Client
}

func (opt Option) withDefaults() Option {
	if opt.Path == "" {
		opt.Path = DefaultPath
	}
	if opt.KeepAliveGrace <= 0 {
		opt.KeepAliveGrace = DefaultKeepAliveGrace
	}
	if opt.HandshakeTimeout <= 0 {
		opt.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return opt
}

// Handler receives the raw arguments of a server push.
type Handler func(args []json.RawMessage)

type negotiateResponse struct {
	URL                     string   `json:"Url"`
	ConnectionToken         string   `json:"ConnectionToken"`
	ConnectionID            string   `json:"ConnectionId"`
	KeepAliveTimeout        *float64 `json:"KeepAliveTimeout"`
	DisconnectTimeout       float64  `json:"DisconnectTimeout"`
	TryWebSockets           bool     `json:"TryWebSockets"`
	ProtocolVersion         string   `json:"ProtocolVersion"`
	TransportConnectTimeout float64  `json:"TransportConnectTimeout"`
}

type startResponse struct {
	Response string `json:"Response"`
}

type hubData struct {
	Name string `json:"name"`
}

// hubInvocation is a client to server call.
type hubInvocation struct {
	Hub       string `json:"H"`
	Method    string `json:"M"`
	Arguments []any  `json:"A"`
	ID        string `json:"I"`
}

// hubMessage is a server to client push inside a persistent message.
type hubMessage struct {
	Hub       string            `json:"H"`
	Method    string            `json:"M"`
	Arguments []json.RawMessage `json:"A"`
}

// serverMessage is every frame the server sends: persistent messages carry C and M,
// invocation results carry I, the init message carries S and keep-alives are empty.
type serverMessage struct {
	MessageID   string          `json:"C"`
	Messages    []hubMessage    `json:"M"`
	Initialized int             `json:"S"`
	InvokeID    string          `json:"I"`
	Result      json.RawMessage `json:"R"`
	Error       string          `json:"E"`
	HubError    bool            `json:"H"`
}

type invocationResult struct {
	result json.RawMessage
	err    error
}
