package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/pkg/errors"
)

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password string) (*entity.Identity, error)
	DeleteUser(ctx context.Context, uid string) error
	GetUser(ctx context.Context, uid string) (*entity.Identity, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(ctx context.Context, email, password string) (string, *entity.AuthTokens, error)
	SendPasswordReset(ctx context.Context, email string) error
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// remoteError keeps AppErrors from the repositories and wraps anything else, using the
// provider's message as the user-facing text.
func remoteError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Remote("The request timed out, please try again", err)
	}
	return errors.Remote(err.Error(), err)
}
