package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/pkg/ctxutil"
)

func TestErrorPresenter_Codes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"radical not found", domain.ErrKeyNotFound, CodeNotFound},
		{"wrapped flexion not found", fmt.Errorf("remove: %w", domain.ErrFlexionNotFound), CodeNotFound},
		{"duplicate radical", domain.ErrDuplicateKey, CodeAlreadyExists},
		{"invalid group", domain.ErrInvalidGroupID, CodeValidation},
		{"invalid position", domain.ErrInvalidPosition, CodeValidation},
		{"empty dictionary", domain.ErrEmptyTree, CodeConflict},
		{"empty group", domain.ErrEmptyGroup, CodeConflict},
		{"introspection", errIntrospectionDisabled, CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			presenter := NewErrorPresenter(slog.Default())
			gqlErr := presenter(context.Background(), gqlerror.WrapPath(ast.Path{ast.PathName("radical")}, tt.err))

			if got := gqlErr.Extensions["code"]; got != tt.code {
				t.Errorf("code = %v, want %s", got, tt.code)
			}
			if gqlErr.Message != tt.err.Error() {
				t.Errorf("message = %q, want %q", gqlErr.Message, tt.err.Error())
			}
			if len(gqlErr.Path) != 1 || gqlErr.Path[0] != ast.PathName("radical") {
				t.Errorf("path = %v, want [radical]", gqlErr.Path)
			}
		})
	}
}

func TestErrorPresenter_ValidationFields(t *testing.T) {
	t.Parallel()

	presenter := NewErrorPresenter(slog.Default())
	err := domain.NewValidationErrors([]domain.FieldError{
		{Field: "radical", Message: "required"},
		{Field: "synonym", Message: "must not contain whitespace"},
	})

	gqlErr := presenter(context.Background(), err)

	if gqlErr.Extensions["code"] != CodeValidation {
		t.Fatalf("code = %v, want %s", gqlErr.Extensions["code"], CodeValidation)
	}
	fields, ok := gqlErr.Extensions["fields"].([]domain.FieldError)
	if !ok {
		t.Fatalf("fields has type %T", gqlErr.Extensions["fields"])
	}
	if len(fields) != 2 || fields[1].Field != "synonym" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestErrorPresenter_InternalHidesMessage(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	presenter := NewErrorPresenter(slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := ctxutil.WithRequestID(context.Background(), "req-9")

	gqlErr := presenter(ctx, errors.New("index corrupted"))

	if gqlErr.Message != "internal error" {
		t.Errorf("message = %q, want %q", gqlErr.Message, "internal error")
	}
	if gqlErr.Extensions["code"] != CodeInternal {
		t.Errorf("code = %v, want %s", gqlErr.Extensions["code"], CodeInternal)
	}
	if !strings.Contains(logs.String(), "index corrupted") || !strings.Contains(logs.String(), "req-9") {
		t.Errorf("log output %q lacks the error or the request id", logs.String())
	}
}
