package db

import (
	"context"

	"promofeed/internal/core/port"
	"promofeed/internal/rules"
)

// SeedSources inserts the rules-file source table into the store. It is
// idempotent: existing sources are overwritten with the rules-file
// definition, which keeps a fresh database and the policy file in step.
func SeedSources(ctx context.Context, repo port.CampaignRepository, r rules.Rules) error {
	for _, s := range r.DomainSources() {
		if err := repo.UpsertSource(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
