// Package client is the Sharify API client: an explicit session manager, a
// query cache whose invalidation follows the querykeys dependency graph,
// optimistic reaction toggles and a debounced searcher.
package client

import (
	"context"
	"log/slog"
	"time"

	"sharify/internal/config"
	"sharify/internal/notifications"
	"sharify/internal/querykeys"
)

// Client wires the session, cache, store and event stream together.
type Client struct {
	*Store

	Session   *Session
	Cache     *QueryCache
	Transport *Transport
	Events    *EventStream

	debounce time.Duration
	log      *slog.Logger
	unsub    func()
}

type options struct {
	apiKey   string
	timeout  time.Duration
	debounce time.Duration
	store    TokenStore
	toaster  Toaster
	logger   *slog.Logger
	graph    *querykeys.Graph
}

// Option customises New.
type Option func(*options)

func WithAPIKey(key string) Option { return func(o *options) { o.apiKey = key } }

func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

func WithSearchDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

func WithTokenStore(s TokenStore) Option { return func(o *options) { o.store = s } }

func WithToaster(t Toaster) Option { return func(o *options) { o.toaster = t } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func WithGraph(g *querykeys.Graph) Option { return func(o *options) { o.graph = g } }

// New builds a client for the API at baseURL. Call Init before use.
func New(baseURL string, opts ...Option) *Client {
	o := options{timeout: 15 * time.Second, debounce: DefaultSearchDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.toaster == nil {
		o.toaster = LogToaster{Logger: o.logger}
	}

	transport := NewTransport(baseURL, o.apiKey, o.timeout)
	session := NewSession(transport, o.store, o.toaster, o.logger)
	cache := NewQueryCache(o.graph)

	c := &Client{
		Store:     NewStore(transport, session, cache, o.toaster),
		Session:   session,
		Cache:     cache,
		Transport: transport,
		Events:    NewEventStream(transport, session, cache, o.logger),
		debounce:  o.debounce,
		log:       o.logger,
	}
	// Cached reads carry per-viewer fields, so every identity change starts
	// from an empty cache.
	c.unsub = session.Subscribe(func(AuthEvent) { cache.Clear() })
	return c
}

// NewFromConfig builds a client from the SHARIFY_* configuration with the
// session persisted to cfg.SessionFile.
func NewFromConfig(cfg *config.ClientConfig, opts ...Option) *Client {
	base := []Option{
		WithAPIKey(cfg.APIKey),
		WithTimeout(cfg.RequestTimeout),
		WithSearchDebounce(cfg.SearchDebounce),
		WithTokenStore(NewFileTokenStore(cfg.SessionFile)),
	}
	return New(cfg.APIURL, append(base, opts...)...)
}

// Init restores any persisted session.
func (c *Client) Init(ctx context.Context) error {
	return c.Session.Init(ctx)
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) error {
	return c.Session.SignUp(ctx, email, password, displayName)
}

func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.Session.SignIn(ctx, email, password)
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.Session.SignOut(ctx)
}

// Searcher returns a new debounced searcher using the configured delay.
func (c *Client) Searcher() *Searcher {
	return c.Store.NewSearcher(c.debounce)
}

// Watch applies server-pushed changes until ctx ends or the session ends.
func (c *Client) Watch(ctx context.Context, onEvent func(notifications.Event)) error {
	if onEvent != nil {
		c.Events.OnEvent(onEvent)
	}
	return c.Events.Run(ctx)
}

// Close waits for background work started by the session.
func (c *Client) Close() {
	if c.unsub != nil {
		c.unsub()
	}
	c.Session.Close()
}
