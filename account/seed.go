package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanlinkhaing/accountd/store"
)

// SeedConfigs ensures the config rows the service depends on exist. Safe to
// run on every boot: an existing row is left untouched.
func SeedConfigs(ctx context.Context, configs store.Collection[Config]) error {
	defaults := []Config{
		{
			Config:        ConfigPriceCredit,
			DescriptionVI: "100",
			DescriptionEN: "50",
		},
	}

	for _, row := range defaults {
		_, err := configs.FindOne(ctx, store.Where("config", row.Config))
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("account: seed config %q: %w", row.Config, err)
		}
		if _, err := configs.Insert(ctx, row); err != nil {
			return fmt.Errorf("account: seed config %q: %w", row.Config, err)
		}
	}
	return nil
}
