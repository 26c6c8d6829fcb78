package exception

import "errors"

// SignalR transport errors
var (
	ErrSignalRNegotiate        = errors.New("signalr: negotiate failed")
	ErrSignalRWebSocketsDenied = errors.New("signalr: server does not allow websockets")
	ErrSignalRHandshake        = errors.New("signalr: handshake failed")
	ErrSignalRStart            = errors.New("signalr: start failed")
	ErrSignalRProtocol         = errors.New("signalr: protocol error")
	ErrSignalRInvoke           = errors.New("signalr: hub method returned an error")
	ErrSignalRConnectionClosed = errors.New("signalr: connection closed")
	ErrSignalRNotStarted       = errors.New("signalr: connection not started")
)
