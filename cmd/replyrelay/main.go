package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/replyrelay/internal/forward"
	"github.com/joshsymonds/replyrelay/internal/gmail"
	"github.com/joshsymonds/replyrelay/internal/runtime"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		runtime.DefaultLogger().Error("replyrelay failed", failureAttrs(err)...)
		os.Exit(1)
	}
}

// failureAttrs surfaces provider and API diagnostics next to the error.
func failureAttrs(err error) []any {
	attrs := []any{"error", err}
	var pe *gmail.ProviderError
	if errors.As(err, &pe) {
		attrs = append(attrs,
			"op", pe.Op,
			"resource", pe.Resource,
			"status", pe.Code,
			"message", pe.Message,
			"details", pe.Details,
		)
	}
	var he *forward.HTTPError
	if errors.As(err, &he) {
		attrs = append(attrs, "http_status", he.StatusCode)
		if he.JSON != nil {
			attrs = append(attrs, "response", he.JSON)
		} else {
			attrs = append(attrs, "response", string(he.Body))
		}
	}
	return attrs
}
