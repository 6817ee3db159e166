package xcontext

import (
	"context"
	"net/http"

	"github.com/compdraw/backend/config"
	"github.com/compdraw/backend/pkg/authenticator"
	"github.com/compdraw/backend/pkg/logger"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

type (
	dbKey           struct{}
	txKey           struct{}
	configsKey      struct{}
	loggerKey       struct{}
	tokenEngineKey  struct{}
	sessionStoreKey struct{}
	httpKey         struct{}
	userIDKey       struct{}
)

type httpInfo struct {
	r *http.Request
	w http.ResponseWriter
}

// dbTransaction wraps a gorm transaction. The done flag lets a deferred
// rollback become a no-op after the commit has happened.
type dbTransaction struct {
	tx   *gorm.DB
	done bool
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the current database handle. If a transaction was begun with
// WithDBTransaction and is still open, the transaction is returned instead.
func DB(ctx context.Context) *gorm.DB {
	if t, ok := ctx.Value(txKey{}).(*dbTransaction); ok && t != nil && !t.done {
		return t.tx
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		panic("no database in context")
	}

	return db
}

func WithDBTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, &dbTransaction{tx: DB(ctx).Begin()})
}

func WithCommitDBTransaction(ctx context.Context) context.Context {
	if t, ok := ctx.Value(txKey{}).(*dbTransaction); ok && t != nil && !t.done {
		t.tx.Commit()
		t.done = true
	}

	return context.WithValue(ctx, txKey{}, (*dbTransaction)(nil))
}

func WithRollbackDBTransaction(ctx context.Context) context.Context {
	if t, ok := ctx.Value(txKey{}).(*dbTransaction); ok && t != nil && !t.done {
		t.tx.Rollback()
		t.done = true
	}

	return context.WithValue(ctx, txKey{}, (*dbTransaction)(nil))
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, ok := ctx.Value(configsKey{}).(config.Configs)
	if !ok {
		panic("no configs in context")
	}

	return cfg
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	if l, ok := ctx.Value(loggerKey{}).(logger.Logger); ok {
		return l
	}

	return logger.NewLogger(logger.INFO)
}

func WithTokenEngine(ctx context.Context, engine authenticator.TokenEngine) context.Context {
	return context.WithValue(ctx, tokenEngineKey{}, engine)
}

func TokenEngine(ctx context.Context) authenticator.TokenEngine {
	engine, ok := ctx.Value(tokenEngineKey{}).(authenticator.TokenEngine)
	if !ok {
		panic("no token engine in context")
	}

	return engine
}

func WithSessionStore(ctx context.Context, store sessions.Store) context.Context {
	return context.WithValue(ctx, sessionStoreKey{}, store)
}

func SessionStore(ctx context.Context) sessions.Store {
	store, ok := ctx.Value(sessionStoreKey{}).(sessions.Store)
	if !ok {
		panic("no session store in context")
	}

	return store
}

func WithHTTPRequestWriter(ctx context.Context, r *http.Request, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, httpKey{}, &httpInfo{r: r, w: w})
}

func HTTPRequest(ctx context.Context) *http.Request {
	info, ok := ctx.Value(httpKey{}).(*httpInfo)
	if !ok {
		return nil
	}

	return info.r
}

func HTTPWriter(ctx context.Context) http.ResponseWriter {
	info, ok := ctx.Value(httpKey{}).(*httpInfo)
	if !ok {
		return nil
	}

	return info.w
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok {
		return ""
	}

	return id
}
