package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sharify/internal/notifications"
	"sharify/internal/querykeys"

	"github.com/gorilla/websocket"
)

// EventStream keeps the query cache in step with changes made elsewhere by
// listening to the server's per-user websocket.
type EventStream struct {
	transport *Transport
	session   *Session
	cache     *QueryCache
	log       *slog.Logger
	dialer    *websocket.Dialer

	onEvent func(notifications.Event)
}

func NewEventStream(transport *Transport, session *Session, cache *QueryCache, logger *slog.Logger) *EventStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStream{
		transport: transport,
		session:   session,
		cache:     cache,
		log:       logger,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// OnEvent registers a callback run after each event has been applied.
func (e *EventStream) OnEvent(fn func(notifications.Event)) {
	e.onEvent = fn
}

// Run connects and applies events until ctx ends or the server signs the
// session out, in which case it returns nil.
// Dropped connections are retried with capped exponential backoff.
func (e *EventStream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if _, err := e.session.RequireIdentity(); err != nil {
			return err
		}
		started := time.Now()
		err := e.runOnce(ctx)
		if err == nil {
			// The server signed this session out.
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if IsStatus(err, http.StatusUnauthorized) {
			return ErrNotAuthenticated
		}
		if time.Since(started) > time.Minute {
			backoff = time.Second
		}
		e.log.Warn("event stream disconnected",
			slog.String("error", errString(err)), slog.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (e *EventStream) streamURL(ticket string) (string, error) {
	u, err := url.Parse(e.transport.BaseURL())
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	q := url.Values{}
	q.Set("ticket", ticket)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (e *EventStream) runOnce(ctx context.Context) error {
	var ticket struct {
		Ticket string `json:"ticket"`
	}
	if err := e.transport.Do(ctx, http.MethodPost, "/api/ws/ticket", nil, &ticket); err != nil {
		return err
	}
	target, err := e.streamURL(ticket.Ticket)
	if err != nil {
		return err
	}

	header := http.Header{}
	if key := e.transport.APIKey(); key != "" {
		header.Set(APIKeyHeader, key)
	}
	conn, resp, err := e.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &APIError{Status: resp.StatusCode}
		}
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev notifications.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			e.log.Warn("ignoring malformed event", slog.String("error", err.Error()))
			continue
		}
		if signedOut := e.apply(ev); signedOut {
			return nil
		}
	}
}

// apply updates local state for one event and reports whether the stream
// should stop because the session ended.
func (e *EventStream) apply(ev notifications.Event) bool {
	stop := false
	switch ev.Type {
	case notifications.EventInvalidate:
		var payload notifications.InvalidatePayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			e.log.Warn("bad invalidate payload", slog.String("error", err.Error()))
			e.cache.Clear()
			break
		}
		keys := make([]querykeys.Key, 0, len(payload.Keys))
		for _, k := range payload.Keys {
			keys = append(keys, querykeys.Parse(k))
		}
		e.cache.Invalidate(keys...)
		e.cache.InvalidateChanges(payload.Changes...)
	case notifications.EventMessagesDropped:
		// Some invalidations were lost; nothing cached can be trusted.
		e.cache.Clear()
	case notifications.EventSignedOut:
		e.session.RemoteSignOut()
		stop = true
	}
	if e.onEvent != nil {
		e.onEvent(ev)
	}
	return stop
}
