package router

import (
	"context"
	"net/http"

	"github.com/compdraw/backend/config"
	"github.com/compdraw/backend/pkg/authenticator"
	"github.com/compdraw/backend/pkg/logger"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

// HandlerFunc is the signature of all domain operations exposed over HTTP.
type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It can enrich the context or stop
// the request by returning an error.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response has been written. The handler error, if
// any, is available through Error(ctx).
type CloserFunc func(ctx context.Context)

type Router struct {
	mux     *http.ServeMux
	baseCtx context.Context

	befores []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, l logger.Logger) *Router {
	ctx := context.Background()
	ctx = xcontext.WithDB(ctx, db)
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, l)
	ctx = xcontext.WithTokenEngine(ctx, authenticator.NewTokenEngine(cfg.Auth.TokenSecret))
	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options.MaxAge = int(cfg.Session.TTL.Seconds())
	sessionStore.Options.HttpOnly = true
	ctx = xcontext.WithSessionStore(ctx, sessionStore)

	return &Router{mux: http.NewServeMux(), baseCtx: ctx}
}

// Branch returns a router sharing the same mux but with an independent
// middleware chain.
func (r *Router) Branch() *Router {
	branch := &Router{mux: r.mux, baseCtx: r.baseCtx}
	branch.befores = append(branch.befores, r.befores...)
	branch.closers = append(branch.closers, r.closers...)
	return branch
}

func (r *Router) Before(f MiddlewareFunc) {
	r.befores = append(r.befores, f)
}

func (r *Router) AddCloser(f CloserFunc) {
	r.closers = append(r.closers, f)
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodPost, handler))
}
