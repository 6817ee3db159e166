package middleware

import (
	"context"

	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/router"
	"github.com/compdraw/backend/pkg/xcontext"
)

type OnlyAdmin struct {
	userRepo repository.UserRepository
}

func NewOnlyAdmin(userRepo repository.UserRepository) *OnlyAdmin {
	return &OnlyAdmin{userRepo: userRepo}
}

func (a *OnlyAdmin) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		userID := xcontext.RequestUserID(ctx)
		if userID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		user, err := a.userRepo.GetByID(ctx, userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
			return nil, errorx.Unknown
		}

		if !user.IsAdmin {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return ctx, nil
	}
}
