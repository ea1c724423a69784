package services

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
)

// Observer receives counters from the services. The Prometheus adapter
// implements it; a nil Observer is replaced with a no-op.
type Observer interface {
	GeneratorCall(purpose, outcome string)
	AuditScored(bucket string)
	LinksRanked(n int)
}

type nopObserver struct{}

func (nopObserver) GeneratorCall(string, string) {}
func (nopObserver) AuditScored(string)           {}
func (nopObserver) LinksRanked(int)              {}

// Generator call outcomes
const (
	OutcomeOK         = "ok"
	OutcomeUpstream   = "upstream_error"
	OutcomeParse      = "parse_error"
	OutcomeIncomplete = "incomplete"
)

type options struct {
	log          logger.Logger
	obs          Observer
	storeTimeout time.Duration
	now          func() time.Time
}

// Option configures a service
type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// WithStoreTimeout bounds every repository call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) { o.storeTimeout = d }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		log: logger.NewNop(),
		obs: nopObserver{},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.storeTimeout)
}

// reqLog returns the request logger when the handler attached one
func (o options) reqLog(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, o.log)
}
