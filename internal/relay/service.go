// internal/relay/service.go
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	gc "github.com/joshsymonds/replyrelay/internal/gmail"
	"github.com/joshsymonds/replyrelay/internal/quote"
	"github.com/joshsymonds/replyrelay/internal/rate"
)

// Pusher delivers one fetched message to the receiving API. Check validates
// that a message could be forwarded without sending anything.
type Pusher interface {
	Push(ctx context.Context, msg gc.Message) error
	Check(msg gc.Message) error
}

type Spec struct {
	Filter       string     // Gmail search filter selecting candidate mail
	HandledLabel string     // label name excluded from the query
	HandledID    gc.LabelID // optional; resolved from HandledLabel when empty
	PageSize     int
	DryRun       bool
	// ContinueOnError keeps going after a message fails; failures are
	// returned together once the batch is done.
	ContinueOnError bool
}

// Result counts what a run did.
type Result struct {
	Listed    int
	Forwarded int
	Relabeled int
	Failed    []gc.MessageID
}

type Service struct {
	Client    gc.Client
	Forwarder Pusher
	Quotes    quote.Extractor
	Limiter   rate.Limiter
	Logger    *slog.Logger
}

// NewService constructs a Service with sane defaults.
func NewService(
	client gc.Client,
	fwd Pusher,
	quotes quote.Extractor,
	limiter rate.Limiter,
	logger *slog.Logger,
) *Service {
	if limiter == nil {
		limiter = rate.Unlimited{}
	}
	if quotes == nil {
		quotes = quote.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client:    client,
		Forwarder: fwd,
		Quotes:    quotes,
		Limiter:   limiter,
		Logger:    logger,
	}
}

// BuildQuery combines the filter with an exclusion of the handled label.
func BuildQuery(filter, handledLabel string) gc.Query {
	label := handledLabel
	if strings.ContainsAny(label, " \t") {
		label = fmt.Sprintf("%q", label)
	}
	exclude := "NOT label:" + label
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return gc.Query{Raw: exclude}
	}
	return gc.Query{Raw: filter + " AND " + exclude}
}

// Run forwards every unhandled message matching spec, one at a time. A
// message is relabeled only after its forward succeeded.
func (s *Service) Run(ctx context.Context, spec Spec) (Result, error) {
	var res Result
	if spec.HandledLabel == "" {
		return res, fmt.Errorf("handled label name is required")
	}
	q := BuildQuery(spec.Filter, spec.HandledLabel)

	ids, err := gc.ListAll(ctx, s.Client, q, spec.PageSize, s.Limiter.Wait)
	if err != nil {
		return res, fmt.Errorf("list messages: %w", err)
	}
	res.Listed = len(ids)
	s.Logger.Info("messages to process", "count", len(ids), "query", q.Raw)
	if len(ids) == 0 {
		return res, nil
	}

	if err := s.Quotes.Init(); err != nil {
		return res, fmt.Errorf("init quote extraction: %w", err)
	}

	handled := spec.HandledID
	if handled == "" && !spec.DryRun {
		if err := s.Limiter.Wait(ctx); err != nil {
			return res, err
		}
		handled, err = s.Client.EnsureLabel(ctx, spec.HandledLabel)
		if err != nil {
			return res, fmt.Errorf("resolve label %q: %w", spec.HandledLabel, err)
		}
	}
	ops := gc.ModifyOps{
		AddLabels:    []gc.LabelID{handled},
		RemoveLabels: []gc.LabelID{gc.LabelUnread},
	}

	var failures *multierror.Error
	for _, id := range ids {
		err := s.process(ctx, id, ops, spec.DryRun, &res)
		if err == nil {
			continue
		}
		if ctx.Err() != nil || !spec.ContinueOnError {
			return res, err
		}
		res.Failed = append(res.Failed, id)
		s.Logger.Error("message failed; leaving unhandled", "id", id, "error", err)
		failures = multierror.Append(failures, err)
	}
	s.Logger.Info("run complete",
		"listed", res.Listed,
		"forwarded", res.Forwarded,
		"relabeled", res.Relabeled,
		"failed", len(res.Failed),
		"dry_run", spec.DryRun,
	)
	return res, failures.ErrorOrNil()
}

func (s *Service) process(ctx context.Context, id gc.MessageID, ops gc.ModifyOps, dryRun bool, res *Result) error {
	if err := s.Limiter.Wait(ctx); err != nil {
		return err
	}
	s.Logger.Debug("getting message", "id", id)
	msg, err := s.Client.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get message %s: %w", id, err)
	}
	s.Logger.Info("fetched message", "id", id, "snippet", msg.Snippet)

	if dryRun {
		if err := s.Forwarder.Check(msg); err != nil {
			return fmt.Errorf("check message %s: %w", id, err)
		}
		s.Logger.Info("dry-run: skipping forward and relabel", "id", id)
		return nil
	}

	if err := s.Forwarder.Push(ctx, msg); err != nil {
		return fmt.Errorf("forward message %s: %w", id, err)
	}
	res.Forwarded++
	s.Logger.Info("pushed message to api", "id", id)

	if err := s.Limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.Client.Modify(ctx, id, ops); err != nil {
		return fmt.Errorf("relabel message %s: %w", id, err)
	}
	res.Relabeled++
	return nil
}
