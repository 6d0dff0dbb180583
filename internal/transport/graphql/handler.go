package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
)

const maxRequestBody = 1 << 20

// Handler serves GraphQL requests: queries over GET or POST, mutations over
// POST only.
type Handler struct {
	schema    *ast.Schema
	resolver  *Resolver
	presenter graphql.ErrorPresenterFunc
	log       *slog.Logger
}

// NewHandler creates a Handler over the dictionary service.
func NewHandler(svc dictionaryService, logger *slog.Logger) *Handler {
	log := logger.With("handler", "graphql")
	return &Handler{
		schema:    schema,
		resolver:  NewResolver(log, svc),
		presenter: NewErrorPresenter(log),
		log:       log,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(w, r)
	if err != nil {
		writeResponse(w, http.StatusBadRequest, errorResponse(gqlerror.Errorf("invalid request: %v", err)))
		return
	}

	status, resp := h.Execute(r.Context(), params, r.Method == http.MethodGet)
	writeResponse(w, status, resp)
}

// Execute parses, validates and runs one operation. readOnly rejects
// mutations. The status follows the common GraphQL-over-HTTP usage: 422 for
// documents that cannot run, 200 once execution started.
func (h *Handler) Execute(ctx context.Context, params *graphql.RawParams, readOnly bool) (int, *graphql.Response) {
	doc, errs := gqlparser.LoadQuery(h.schema, params.Query)
	if len(errs) > 0 {
		return http.StatusUnprocessableEntity, &graphql.Response{Errors: errs}
	}

	op := doc.Operations.ForName(params.OperationName)
	if op == nil {
		return http.StatusUnprocessableEntity, errorResponse(gqlerror.Errorf("operation %q not found", params.OperationName))
	}
	if d := depth(op.SelectionSet); d > MaxDepth {
		return http.StatusUnprocessableEntity, errorResponse(gqlerror.Errorf("query depth %d exceeds the limit of %d", d, MaxDepth))
	}

	var root string
	switch op.Operation {
	case ast.Query:
		root = h.schema.Query.Name
	case ast.Mutation:
		if readOnly {
			return http.StatusMethodNotAllowed, errorResponse(gqlerror.Errorf("mutations require POST"))
		}
		root = h.schema.Mutation.Name
	default:
		return http.StatusUnprocessableEntity, errorResponse(gqlerror.Errorf("%s operations are not supported", op.Operation))
	}

	vars, err := validator.VariableValues(h.schema, op, params.Variables)
	if err != nil {
		var gqlErr *gqlerror.Error
		if !errors.As(err, &gqlErr) {
			gqlErr = gqlerror.Errorf("%v", err)
		}
		return http.StatusUnprocessableEntity, errorResponse(gqlErr)
	}

	e := &execution{
		opCtx: &graphql.OperationContext{
			RawQuery:      params.Query,
			Variables:     vars,
			OperationName: params.OperationName,
			Doc:           doc,
			Operation:     op,
		},
		resolver:  h.resolver,
		presenter: h.presenter,
	}

	var buf bytes.Buffer
	e.run(ctx, root).MarshalGQL(&buf)
	return http.StatusOK, &graphql.Response{Data: buf.Bytes(), Errors: e.errors}
}

// readParams reads the request from the query string (GET) or a JSON body.
func readParams(w http.ResponseWriter, r *http.Request) (*graphql.RawParams, error) {
	params := &graphql.RawParams{}

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		params.Query = q.Get("query")
		params.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
			dec.UseNumber()
			if err := dec.Decode(&params.Variables); err != nil {
				return nil, err
			}
		}
		return params, nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(params); err != nil {
		return nil, err
	}
	return params, nil
}

func errorResponse(err *gqlerror.Error) *graphql.Response {
	return &graphql.Response{Errors: gqlerror.List{err}}
}

func writeResponse(w http.ResponseWriter, status int, resp *graphql.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
