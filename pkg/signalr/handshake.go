package signalr

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"homebroker/pkg/exception"
)

// endpoint builds {base}{path}/{action} with the protocol query parameters.
func (c *Client) endpoint(action string, token string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(c.baseURL, "/") + "/" + strings.Trim(c.opt.Path, "/") + "/" + action)
	if err != nil {
		return nil, errors.Wrap(err, "parse endpoint")
	}

	connectionData, err := sonic.ConfigFastest.MarshalToString([]hubData{{Name: c.opt.Hub}})
	if err != nil {
		return nil, errors.Wrap(err, "marshal connection data")
	}

	q := url.Values{}
	q.Set("clientProtocol", ProtocolVersion)
	q.Set("connectionData", connectionData)
	if action != "negotiate" {
		q.Set("transport", transportWebSockets)
		q.Set("connectionToken", token)
	}
	u.RawQuery = q.Encode()

	return u, nil
}

func (c *Client) request(ctx context.Context, method string, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	for k, v := range c.opt.Header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (c *Client) negotiate(ctx context.Context) (negotiateResponse, error) {
	var resp negotiateResponse

	u, err := c.endpoint("negotiate", "")
	if err != nil {
		return resp, err
	}

	body, err := c.request(ctx, http.MethodGet, u)
	if err != nil {
		return resp, errors.Wrap(exception.ErrSignalRNegotiate, err.Error())
	}
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return resp, errors.Wrap(exception.ErrSignalRNegotiate, err.Error())
	}
	if resp.ConnectionToken == "" {
		return resp, errors.Wrap(exception.ErrSignalRNegotiate, "empty connection token")
	}
	if !resp.TryWebSockets {
		return resp, exception.ErrSignalRWebSocketsDenied
	}

	return resp, nil
}

func (c *Client) start(ctx context.Context, token string) error {
	u, err := c.endpoint("start", token)
	if err != nil {
		return err
	}

	body, err := c.request(ctx, http.MethodGet, u)
	if err != nil {
		return errors.Wrap(exception.ErrSignalRStart, err.Error())
	}

	var resp startResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return errors.Wrap(exception.ErrSignalRStart, err.Error())
	}
	if resp.Response != "started" {
		return errors.Wrap(exception.ErrSignalRStart, "unexpected response: "+resp.Response)
	}

	return nil
}

// abort tells the server the connection is gone. It is best-effort.
func (c *Client) abort(ctx context.Context, token string) error {
	u, err := c.endpoint("abort", token)
	if err != nil {
		return err
	}

	if _, err := c.request(ctx, http.MethodPost, u); err != nil {
		return errors.Wrap(err, "abort")
	}

	return nil
}

// socketURL turns the connect endpoint into a ws or wss url.
func socketURL(u *url.URL) *url.URL {
	ws := *u
	switch ws.Scheme {
	case "https":
		ws.Scheme = "wss"
	case "http":
		ws.Scheme = "ws"
	}
	return &ws
}
