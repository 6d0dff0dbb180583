package graphql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// MaxDepth bounds the nesting of a selection set. Senses lead back to
// radicals, so without a bound a single query could walk the dictionary
// many times over.
const MaxDepth = 10

var (
	errIntrospectionDisabled = fmt.Errorf("%w: introspection is not supported", domain.ErrValidation)
	errNullValue             = errors.New("the requested element is null which the schema does not allow")
)

// execution holds the state of one operation.
type execution struct {
	opCtx     *graphql.OperationContext
	resolver  *Resolver
	presenter graphql.ErrorPresenterFunc
	errors    gqlerror.List
}

// run executes the operation and returns the marshaled data. The root is
// null when a non-null field failed all the way up.
func (e *execution) run(ctx context.Context, root string) graphql.Marshaler {
	data := e.object(ctx, e.opCtx.Operation.SelectionSet, root, nil, nil)
	if data == nil {
		return graphql.Null
	}
	return data
}

// object resolves the selected fields of a typeName value. It returns nil
// when a non-null field resolved to null, which nulls the parent in turn.
func (e *execution) object(ctx context.Context, sel ast.SelectionSet, typeName string, obj any, path ast.Path) graphql.Marshaler {
	fields := graphql.CollectFields(e.opCtx, sel, []string{typeName})
	out := &orderedObject{}

	for _, f := range fields {
		fieldPath := append(slices.Clip(path), ast.PathName(f.Alias))

		if f.Name == "__typename" {
			out.add(f.Alias, graphql.MarshalString(typeName))
			continue
		}

		value := e.field(ctx, typeName, f, obj, fieldPath)
		if value == nil {
			if f.Definition.Type.NonNull {
				return nil
			}
			value = graphql.Null
		}
		out.add(f.Alias, value)
	}
	return out
}

// field resolves and completes one field; nil means a null that must
// propagate.
func (e *execution) field(ctx context.Context, typeName string, f graphql.CollectedField, obj any, path ast.Path) graphql.Marshaler {
	resolve, ok := e.resolver.field(typeName, f.Name)
	if !ok {
		err := fmt.Errorf("field %s.%s is not resolvable", typeName, f.Name)
		if f.Name == "__schema" || f.Name == "__type" {
			err = errIntrospectionDisabled
		}
		e.addError(ctx, path, err)
		return nil
	}

	v, err := resolve(ctx, obj, f.ArgumentMap(e.opCtx.Variables))
	if err != nil {
		e.addError(ctx, path, err)
		return nil
	}
	return e.complete(ctx, f.Definition.Type, f.Selections, v, path)
}

// complete turns a resolved value into its response form following typ.
func (e *execution) complete(ctx context.Context, typ *ast.Type, sel ast.SelectionSet, v any, path ast.Path) graphql.Marshaler {
	if v == nil {
		if typ.NonNull {
			e.addError(ctx, path, errNullValue)
			return nil
		}
		return graphql.Null
	}

	if typ.Elem != nil {
		items, ok := v.([]any)
		if !ok {
			e.addError(ctx, path, fmt.Errorf("expected a list, got %T", v))
			return nil
		}
		arr := make(graphql.Array, len(items))
		for i, item := range items {
			m := e.complete(ctx, typ.Elem, sel, item, append(slices.Clip(path), ast.PathIndex(i)))
			if m == nil {
				return e.nullOr(typ)
			}
			arr[i] = m
		}
		return arr
	}

	switch typ.NamedType {
	case "String":
		if s, ok := v.(string); ok {
			return graphql.MarshalString(s)
		}
	case "Int":
		if n, ok := v.(int); ok {
			return graphql.MarshalInt(n)
		}
	case "Boolean":
		if b, ok := v.(bool); ok {
			return graphql.MarshalBoolean(b)
		}
	default:
		if m := e.object(ctx, sel, typ.NamedType, v, path); m != nil {
			return m
		}
		return e.nullOr(typ)
	}

	e.addError(ctx, path, fmt.Errorf("cannot return %T as %s", v, typ.NamedType))
	return e.nullOr(typ)
}

// nullOr is the value of a field whose child failed: null when typ allows
// it, otherwise nil so the failure keeps propagating.
func (e *execution) nullOr(typ *ast.Type) graphql.Marshaler {
	if typ.NonNull {
		return nil
	}
	return graphql.Null
}

func (e *execution) addError(ctx context.Context, path ast.Path, err error) {
	e.errors = append(e.errors, e.presenter(ctx, gqlerror.WrapPath(path, err)))
}

// orderedObject is a response object that keeps the selection order.
type orderedObject struct {
	keys   []string
	values []graphql.Marshaler
}

func (o *orderedObject) add(key string, v graphql.Marshaler) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

func (o *orderedObject) MarshalGQL(w io.Writer) {
	io.WriteString(w, "{")
	for i, key := range o.keys {
		if i > 0 {
			io.WriteString(w, ",")
		}
		graphql.MarshalString(key).MarshalGQL(w)
		io.WriteString(w, ":")
		o.values[i].MarshalGQL(w)
	}
	io.WriteString(w, "}")
}

// depth returns the nesting depth of a selection set, following fragments.
func depth(sel ast.SelectionSet) int {
	deepest := 0
	for _, s := range sel {
		var d int
		switch s := s.(type) {
		case *ast.Field:
			d = 1 + depth(s.SelectionSet)
		case *ast.InlineFragment:
			d = depth(s.SelectionSet)
		case *ast.FragmentSpread:
			if s.Definition != nil {
				d = depth(s.Definition.SelectionSet)
			}
		}
		deepest = max(deepest, d)
	}
	return deepest
}
