package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/parley/internal/store"
)

// StateKey is the app_state key holding the bank.
const StateKey = "questionbank"

// Load restores the bank from st. A missing or unreadable entry leaves the
// bank freshly shuffled.
func Load(ctx context.Context, b *Bank, st store.StateRepo) error {
	raw, err := st.GetState(ctx, StateKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decode question bank: %w", err)
	}
	b.Restore(s)
	return nil
}

// Save persists the bank's state.
func Save(ctx context.Context, b *Bank, st store.StateRepo) error {
	raw, err := json.Marshal(b.State())
	if err != nil {
		return fmt.Errorf("encode question bank: %w", err)
	}
	if err := st.PutState(ctx, StateKey, raw); err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	return nil
}
