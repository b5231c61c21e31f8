package middleware

import (
	"context"
	"testing"

	"github.com/akeyless-community/akeyless-mcp-plugin/protocol"
)

func okHandler(order *[]string) HandlerFunc {
	return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		if order != nil {
			*order = append(*order, "handler")
		}
		return &protocol.Response{JSONRPC: protocol.JSONRPCVersion}, nil
	}
}

func TestChain(t *testing.T) {
	t.Run("empty chain returns handler unchanged", func(t *testing.T) {
		called := false
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			called = true
			return &protocol.Response{JSONRPC: protocol.JSONRPCVersion}, nil
		})

		chained := Chain()(handler)
		_, err := chained(context.Background(), protocol.NewRequest(1, "test", nil))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Error("handler was not called")
		}
	})

	t.Run("multiple middleware execute in order", func(t *testing.T) {
		order := []string{}

		mk := func(name string) Middleware {
			return func(next HandlerFunc) HandlerFunc {
				return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
					order = append(order, name+"-before")
					resp, err := next(ctx, req)
					order = append(order, name+"-after")
					return resp, err
				}
			}
		}

		chained := Chain(mk("m1"), mk("m2"))(okHandler(&order))
		_, _ = chained(context.Background(), protocol.NewRequest(1, "test", nil))

		expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
		if len(order) != len(expected) {
			t.Fatalf("order = %v, want %v", order, expected)
		}
		for i, v := range expected {
			if order[i] != v {
				t.Errorf("order[%d] = %q, want %q", i, order[i], v)
			}
		}
	})

	t.Run("middleware can short-circuit chain", func(t *testing.T) {
		handlerCalled := false

		blocking := func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
				return nil, protocol.NewInvalidRequest("blocked")
			}
		}

		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			handlerCalled = true
			return &protocol.Response{JSONRPC: protocol.JSONRPCVersion}, nil
		})

		chained := Chain(blocking)(handler)
		_, err := chained(context.Background(), protocol.NewRequest(1, "test", nil))

		if err == nil {
			t.Error("expected error from blocking middleware")
		}
		if handlerCalled {
			t.Error("handler should not have been called")
		}
	})
}

func TestDefaultStack(t *testing.T) {
	t.Run("wires recovery, ids, and logging", func(t *testing.T) {
		stack := DefaultStack(NopLogger{})
		if len(stack) != 3 {
			t.Fatalf("got %d middleware, want 3", len(stack))
		}

		var sawID bool
		handler := Chain(stack...)(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			sawID = RequestIDFromContext(ctx) != ""
			panic("boom")
		})

		_, err := handler(context.Background(), protocol.NewRequest(1, "test", nil))
		if err == nil {
			t.Error("expected recovered panic error")
		}
		if !sawID {
			t.Error("expected request ID in context")
		}
	})
}
