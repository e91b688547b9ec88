package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/ports"
)

// MirrorWorker copies recorded expenses into a second store, e.g. a
// spreadsheet export of a table-backed deployment.
type MirrorWorker struct {
	target  ports.ExpenseAppender
	backend string
}

// NewMirrorWorker appends to target, whose backend type is used to skip
// events that originated from the same kind of store.
func NewMirrorWorker(target ports.ExpenseAppender, backend string) *MirrorWorker {
	return &MirrorWorker{
		target:  target,
		backend: backend,
	}
}

// HandleExpenseRecorded processes a single expense.recorded message from AMQP
func (w *MirrorWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	if msg.Backend == w.backend {
		slog.DebugContext(ctx, "Skipping event from mirror backend",
			"ref", msg.Ref,
			"backend", msg.Backend)
		return nil
	}

	e, err := msg.Expense()
	if err != nil {
		// a broken record will not improve on redelivery
		slog.WarnContext(ctx, "Dropping invalid expense event",
			"ref", msg.Ref,
			"error", err)
		return nil
	}

	ref, err := w.target.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("mirror expense %s: %w", msg.Ref, err)
	}

	slog.InfoContext(ctx, "Mirrored expense",
		"source_ref", msg.Ref,
		"source_backend", msg.Backend,
		"mirror_ref", ref,
		"mirror_backend", w.backend)

	return nil
}
