package graphql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/pkg/ctxutil"
)

// Error codes reported in the "code" extension.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeValidation    = "VALIDATION"
	CodeConflict      = "CONFLICT"
	CodeInternal      = "INTERNAL"
)

// NewErrorPresenter returns an error presenter that maps domain errors to
// GraphQL error codes.
func NewErrorPresenter(log *slog.Logger) graphql.ErrorPresenterFunc {
	return func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)

		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			gqlErr.Extensions = map[string]any{"code": CodeValidation, "fields": ve.Errors}

		case errors.Is(err, domain.ErrValidation):
			gqlErr.Extensions = map[string]any{"code": CodeValidation}

		case errors.Is(err, domain.ErrNotFound):
			gqlErr.Extensions = map[string]any{"code": CodeNotFound}

		case errors.Is(err, domain.ErrAlreadyExists):
			gqlErr.Extensions = map[string]any{"code": CodeAlreadyExists}

		case errors.Is(err, domain.ErrConflict):
			gqlErr.Extensions = map[string]any{"code": CodeConflict}

		default:
			log.ErrorContext(ctx, "unexpected GraphQL error",
				slog.String("error", err.Error()),
				slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
			)
			gqlErr.Message = "internal error"
			gqlErr.Extensions = map[string]any{"code": CodeInternal}
		}

		return gqlErr
	}
}
