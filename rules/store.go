package rules

import (
	"context"
	"fmt"

	"mailsort/client"
)

// SettingsSource provides the currently persisted rule set. The config
// manager implements it; tests substitute a stub.
type SettingsSource interface {
	Rules() []Rule
}

// Store resolves the active rule set: the configured rules when any exist,
// otherwise defaults derived from the host's accounts. The default set is
// never persisted implicitly.
type Store struct {
	settings SettingsSource
	client   client.Client
}

func NewStore(settings SettingsSource, c client.Client) *Store {
	return &Store{settings: settings, client: c}
}

func (s *Store) Get(ctx context.Context) ([]Rule, error) {
	if ruleSet := s.settings.Rules(); len(ruleSet) > 0 {
		return ruleSet, nil
	}
	accounts, err := s.client.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts for default rules: %w", err)
	}
	return Default(accounts), nil
}
