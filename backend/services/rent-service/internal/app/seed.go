package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-repositories"
	seeding "github.com/rentflow/mono-repo/backend/shared/go-seeding"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

// SeedAllTestData seeds a demo property, its units and one tenant. The
// tenant goes through the normal move-in path so its ledger and the unit
// link are built the same way as for a real tenant. Safe to re-run.
func SeedAllTestData(
	ctx context.Context,
	propRepo repositories.PropertyRepository,
	unitRepo repositories.UnitRepository,
	tenancy *services.TenancyService,
	store services.Store,
	paybill string,
) error {
	if err := seeding.SeedDemoProperty(ctx, propRepo, unitRepo, paybill); err != nil {
		return fmt.Errorf("seed demo property: %w", err)
	}

	existing, err := store.FindTenantByPhone(ctx, utils.NormalizeKenyanPhone(seeding.DemoTenantPhone))
	if err != nil {
		return fmt.Errorf("check demo tenant: %w", err)
	}
	if existing != nil {
		utils.Logger.Info("rent-service: Seed data already present; skipping seeding.")
		return nil
	}

	_, err = tenancy.MoveIn(ctx, dtos.MoveInRequest{
		Name:     seeding.DemoTenantName,
		Phone:    seeding.DemoTenantPhone,
		UnitCode: seeding.DemoTenantUnit,
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) && appErr.Code == utils.ErrCodeUnitOccupied {
			utils.Logger.Infof("rent-service: demo unit %s already occupied; skipping tenant seed", seeding.DemoTenantUnit)
			return nil
		}
		return fmt.Errorf("seed demo tenant: %w", err)
	}

	utils.Logger.Info("rent-service: Seeding completed successfully.")
	return nil
}
