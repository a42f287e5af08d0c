package service

import (
	"context"
	"fmt"
	"log/slog"
)

// storeFailure logs an unexpected store error and wraps it with the
// operation name so handlers can still unwrap the cause.
func storeFailure(ctx context.Context, log *slog.Logger, op string, err error) error {
	log.ErrorContext(ctx, "store operation failed", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}
