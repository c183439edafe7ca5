// seed-demo-data populates a development database with sample reconciliation
// records across a few shifts and severity levels, and prints a dev JWT for
// exercising the API by hand.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   go run ./cmd/seed-demo-data
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

const (
	demoRestaurantId = "demo-restaurant-1"
	demoUserId       = 1
	demoUserName     = "Demo Manager"
	demoRole         = "manager"
)

func qty(values ...int64) models.MetricValues {
	return models.MetricValues{
		Stock:         decimal.NewFromInt(values[0]),
		Withdrawn:     decimal.NewFromInt(values[1]),
		Sold:          decimal.NewFromInt(values[2]),
		Returned:      decimal.NewFromInt(values[3]),
		Wasted:        decimal.NewFromInt(values[4]),
		StaffConsumed: decimal.NewFromInt(values[5]),
		Sampled:       decimal.NewFromInt(values[6]),
	}
}

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetRestaurantIdInContext(ctx, demoRestaurantId)
	ctx = utils.SetUserIdInContext(ctx, demoUserId)
	ctx = utils.SetUserNameInContext(ctx, demoUserName)
	ctx = utils.SetRoleInContext(ctx, demoRole)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	reason := "waste spike"

	samples := []*models.NewReconciliation{
		{
			ItemId: 101, DepartmentId: 1,
			ShiftDate: today.AddDate(0, 0, -2), ShiftType: models.ShiftTypeMorning,
			Expected:  qty(50, 45, 40, 2, 1, 1, 1),
			Actual:    qty(47, 45, 40, 2, 3, 1, 1),
			UnitPrice: decimal.NewFromInt(50000),
			Reason:    &reason,
		},
		{
			ItemId: 102, DepartmentId: 1,
			ShiftDate: today.AddDate(0, 0, -1), ShiftType: models.ShiftTypeEvening,
			Expected:  qty(30, 28, 25, 1, 1, 1, 0),
			Actual:    qty(30, 28, 25, 1, 1, 1, 0),
			UnitPrice: decimal.NewFromInt(12000),
		},
		{
			// 25% stock shortage: lands critical and queues an alert.
			ItemId: 103, DepartmentId: 2,
			ShiftDate: today.AddDate(0, 0, -1), ShiftType: models.ShiftTypeNight,
			Expected:  qty(40, 35, 30, 2, 1, 1, 1),
			Actual:    qty(30, 35, 30, 2, 1, 1, 1),
			UnitPrice: decimal.NewFromInt(8000),
		},
	}

	created := 0
	for _, input := range samples {
		rec, err := models.CreateReconciliation(ctx, input)
		if err != nil {
			var validationErr *utils.ValidationError
			if errors.As(err, &validationErr) {
				// Re-runs hit the duplicate-shift guard; skip and continue.
				fmt.Printf("skipping item %d: %s\n", input.ItemId, validationErr.Message)
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to create reconciliation for item %d: %v\n", input.ItemId, err)
			os.Exit(1)
		}
		created++
		fmt.Printf("created reconciliation %d: item=%d alert=%s status=%s\n",
			rec.ID, rec.ItemId, rec.AlertLevel, rec.CurrentStatus)
	}

	token, err := utils.JwtGenerate(demoUserId, demoUserName, demoRole, demoRestaurantId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate dev token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nseeded %d records for restaurant %s\n", created, demoRestaurantId)
	fmt.Printf("dev token (Authorization: Bearer ...):\n%s\n", token)
}
