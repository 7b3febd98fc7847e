package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"threadhub/pkg/models"
)

// EventStream is a live subscription to one article's comment events
type EventStream struct {
	conn *websocket.Conn
}

// EventsURL derives the websocket endpoint of an article from the API base
// URL: http://host/api/v1 becomes ws://host/ws/articles/{id}
func EventsURL(baseURL string, articleID int64, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/api/v1") + fmt.Sprintf("/ws/articles/%d", articleID)
	u.RawQuery = ""
	if token != "" {
		u.RawQuery = url.Values{"token": []string{token}}.Encode()
	}
	return u.String(), nil
}

// Subscribe opens the event stream of articleID. token may be empty.
func (c *Client) Subscribe(ctx context.Context, articleID int64, token string) (*EventStream, error) {
	wsURL, err := EventsURL(c.baseURL, articleID, token)
	if err != nil {
		return nil, models.NewNetworkFailure(err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	headers := http.Header{}
	headers.Set("User-Agent", "threadhub-client/1.0")

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			var apiResp apiResponse
			msg := ""
			if json.Unmarshal(body, &apiResp) == nil {
				msg = firstNonEmpty(apiResp.Error, apiResp.Message)
			}
			return nil, statusError(resp.StatusCode, msg)
		}
		return nil, models.NewNetworkFailure(fmt.Errorf("connection failed: %w", err))
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks until the next event arrives. It returns io.EOF once the
// stream is closed by either side.
func (s *EventStream) Next() (models.CommentEvent, error) {
	var event models.CommentEvent
	if err := s.conn.ReadJSON(&event); err != nil {
		if isClosed(err) {
			return models.CommentEvent{}, io.EOF
		}
		return models.CommentEvent{}, models.NewNetworkFailure(fmt.Errorf("read failed: %w", err))
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event, nil
}

// Close ends the subscription
func (s *EventStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func isClosed(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}
