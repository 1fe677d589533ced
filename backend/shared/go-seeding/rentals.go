package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-repositories"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/shopspring/decimal"
)

const (
	DemoPropertyID = "7a3c1e52-0d4b-4f6e-9a21-5c8d2b1e0001"

	DemoTenantName  = "Grace Wanjiku"
	DemoTenantPhone = "0712000001"
	DemoTenantUnit  = "A1"
)

// DemoUnits are the units seeded into the demo property. The first is the
// one the demo tenant moves into.
var DemoUnits = []struct {
	ID      string
	Code    string
	Rent    int64
	Deposit int64
	Garbage int64
	Water   int64
}{
	{"7a3c1e52-0d4b-4f6e-9a21-5c8d2b1e0101", "A1", 5000, 5000, 300, 200},
	{"7a3c1e52-0d4b-4f6e-9a21-5c8d2b1e0102", "A2", 6500, 6500, 300, 250},
	{"7a3c1e52-0d4b-4f6e-9a21-5c8d2b1e0103", "B1", 8000, 0, 300, 300},
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SeedDemoProperty ensures the demo property and its units exist. It is safe
// to run on every boot and against a database another instance is seeding.
// Existing rows are brought back in line with the paybill and the demo tariff.
func SeedDemoProperty(ctx context.Context, propRepo repositories.PropertyRepository, unitRepo repositories.UnitRepository, paybill string) error {
	propID := uuid.MustParse(DemoPropertyID)

	existing, err := propRepo.GetByID(ctx, propID)
	if err != nil {
		return fmt.Errorf("check existing demo property: %w", err)
	}
	if existing == nil {
		p := &models.Property{
			ID:            propID,
			PropertyName:  "Kilimani Court",
			Address:       "Argwings Kodhek Road",
			City:          "Nairobi",
			PaybillNumber: paybill,
		}
		if err := propRepo.Create(ctx, p); err != nil && !isUniqueViolation(err) {
			return fmt.Errorf("insert demo property: %w", err)
		}
		utils.Logger.Infof("seeding: demo property %s created", propID)
	} else if paybill != "" && existing.PaybillNumber != paybill {
		err := propRepo.UpdateWithRetry(ctx, propID, func(p *models.Property) error {
			p.PaybillNumber = paybill
			return nil
		})
		if err != nil {
			return fmt.Errorf("update demo property paybill: %w", err)
		}
		utils.Logger.Infof("seeding: demo property paybill set to %s", paybill)
	}

	for _, du := range DemoUnits {
		rent := decimal.NewFromInt(du.Rent)
		deposit := decimal.NewFromInt(du.Deposit)
		fees := models.UtilityFees{
			Garbage: decimal.NewFromInt(du.Garbage),
			Water:   decimal.NewFromInt(du.Water),
		}

		u, err := unitRepo.GetByCode(ctx, du.Code)
		if err != nil {
			return fmt.Errorf("check unit %s: %w", du.Code, err)
		}
		if u != nil {
			if !u.IsVacant || tariffMatches(u, rent, deposit, fees) {
				continue
			}
			// Only vacant units are re-priced; an occupant keeps the
			// terms they moved in on.
			err := unitRepo.UpdateWithRetry(ctx, u.ID, func(cur *models.Unit) error {
				if !cur.IsVacant {
					return errUnitTaken
				}
				cur.RentAmount = rent
				cur.DepositAmount = deposit
				cur.UtilityFees = fees
				return nil
			})
			if errors.Is(err, errUnitTaken) {
				continue
			}
			if err != nil {
				return fmt.Errorf("update unit %s tariff: %w", du.Code, err)
			}
			utils.Logger.Infof("seeding: unit %s tariff updated", du.Code)
			continue
		}

		u = &models.Unit{
			ID:                  uuid.MustParse(du.ID),
			UnitCode:            du.Code,
			PropertyID:          propID,
			RentAmount:          rent,
			DepositAmount:       deposit,
			UtilityFees:         fees,
			IsVacant:            true,
			CurrentPeriodStatus: models.LedgerStatusUnpaid,
		}
		if err := unitRepo.Create(ctx, u); err != nil {
			if isUniqueViolation(err) {
				utils.Logger.Infof("seeding: unit %s already present; skipping", du.Code)
				continue
			}
			return fmt.Errorf("insert unit %s: %w", du.Code, err)
		}
		utils.Logger.Infof("seeding: unit %s created", du.Code)
	}
	return nil
}

var errUnitTaken = errors.New("unit occupied during seeding")

func tariffMatches(u *models.Unit, rent, deposit decimal.Decimal, fees models.UtilityFees) bool {
	return u.RentAmount.Equal(rent) &&
		u.DepositAmount.Equal(deposit) &&
		u.UtilityFees.Garbage.Equal(fees.Garbage) &&
		u.UtilityFees.Water.Equal(fees.Water)
}
