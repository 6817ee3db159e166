package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
)

type errKey struct{}

// Error returns the handler error of the current request, for use in closers.
func Error(ctx context.Context) error {
	if err, ok := ctx.Value(errKey{}).(error); ok {
		return err
	}

	return nil
}

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := xcontext.WithHTTPRequestWriter(r.baseCtx, req, w)

		resp, err := func() (*Response, error) {
			if req.Method != method {
				return nil, errorx.New(errorx.BadRequest, "Not supported method %s", req.Method)
			}

			var body Request
			switch method {
			case http.MethodGet:
				if err := bindQuery(req, &body); err != nil {
					return nil, errorx.New(errorx.BadRequest, "Cannot bind the request")
				}
			case http.MethodPost:
				if req.Body != nil {
					if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
						return nil, errorx.New(errorx.BadRequest, "Cannot parse the request body")
					}
				}
			}

			for _, before := range r.befores {
				newCtx, innerErr := before(ctx)
				if innerErr != nil {
					return nil, innerErr
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			return handler(ctx, &body)
		}()

		if err != nil {
			writeJSON(ctx, w, newErrorResponse(err))
		} else {
			writeJSON(ctx, w, newResponse(resp))
		}

		ctx = context.WithValue(ctx, errKey{}, err)
		for _, closer := range r.closers {
			closer(ctx)
		}
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
	}
}
