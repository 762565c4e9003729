package coins

import (
	"context"
	"errors"
	"fmt"
)

// WithCompensation runs debit, then action. When action fails, undo restores
// what debit changed and the action error is returned. There is no isolation:
// a concurrent writer can interleave between the steps.
func WithCompensation(ctx context.Context, debit, action, undo func(context.Context) error) error {
	if err := debit(ctx); err != nil {
		return err
	}
	if err := action(ctx); err != nil {
		if undoErr := undo(ctx); undoErr != nil {
			return errors.Join(err, fmt.Errorf("compensation failed: %w", undoErr))
		}
		return err
	}
	return nil
}
