package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
)

// LoadOptions controls what a fresh or loaded state is seeded with.
type LoadOptions struct {
	SeedAccounts bool
}

// LoadState reads the blob and merges in missing defaults. On first run the
// initial state is saved. A blob that does not decode is logged and replaced
// by the initial state in memory; it is left untouched in the backend.
func LoadState(ctx context.Context, p Persister, opts LoadOptions, log zerolog.Logger) (domain.State, error) {
	initial := domain.InitialState()
	if !opts.SeedAccounts {
		initial.Accounts = []domain.Account{}
	}

	data, err := p.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		log.Info().Msg("No saved state, starting from defaults")
		if err := SaveState(ctx, p, initial); err != nil {
			return domain.State{}, fmt.Errorf("LoadState: %w", err)
		}
		return initial, nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("LoadState: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Error().Err(err).Int("bytes", len(data)).Msg("Saved state is corrupted, using defaults")
		return initial, nil
	}
	return domain.MergeDefaults(state, opts.SeedAccounts), nil
}

// SaveState encodes state and writes it as the whole blob.
func SaveState(ctx context.Context, p Persister, state domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("SaveState: marshal: %w", err)
	}
	if err := p.Save(ctx, data); err != nil {
		return fmt.Errorf("SaveState: %w", err)
	}
	return nil
}

// Copy moves the raw blob from one persister to another. It is how backups
// and restores are taken; the blob is validated before it is written.
func Copy(ctx context.Context, from, to Persister) (int, error) {
	data, err := from.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("Copy: load: %w", err)
	}
	var check domain.State
	if err := json.Unmarshal(data, &check); err != nil {
		return 0, fmt.Errorf("Copy: source blob is not a state: %w", err)
	}
	if err := to.Save(ctx, data); err != nil {
		return 0, fmt.Errorf("Copy: save: %w", err)
	}
	return len(data), nil
}
