package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	pginfra "github.com/oksasatya/greenloop/internal/infrastructure/postgres"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// seed creates a demo user and logs a few actions and swaps through the
// ledger service, so totals and levels come out exactly as in production.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	actions := pginfra.NewActionRepository(pool)
	swaps := pginfra.NewSwapRepository(pool)
	rec := application.NewReconciler(users, actions, swaps, xp.Default, nil, nil, logger)
	svc := application.NewService(users, rec, nil, nil, "", nil, logger, nil)
	ledger := application.NewLedgerService(users, actions, swaps, xp.Default, nil, nil, nil, logger)

	email := "demo@greenloop.dev"
	password := "password123"
	u, err := svc.Register(ctx, application.RegisterInput{Email: email, Password: password, Name: "Demo Gardener"})
	if errors.Is(err, application.ErrEmailTaken) {
		fmt.Printf("user %s already seeded\n", email)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}

	for _, a := range []application.LogActionInput{
		{Type: "PLANT", Details: entity.ActionDetails{PlantName: "Basil", PlantType: "herb"}},
		{Type: "WALK", Details: entity.ActionDetails{Title: "Walked to work"}},
		{Type: "REFILL", Details: entity.ActionDetails{Title: "Refilled water bottle"}},
		{Type: "COMPOST"},
	} {
		a.UserID = u.ID
		if _, err := ledger.LogAction(ctx, a); err != nil {
			log.Fatalf("failed to seed action %s: %v", a.Type, err)
		}
	}
	if _, err := ledger.LogSwap(ctx, application.LogSwapInput{
		UserID:         u.ID,
		Original:       "Plastic water bottle",
		Replacement:    "Stainless steel bottle",
		Category:       entity.CategoryHydration,
		EcoScoreBefore: 20,
		EcoScoreAfter:  90,
		CO2Saved:       0.08,
		PlasticSaved:   12,
	}); err != nil {
		log.Fatalf("failed to seed swap: %v", err)
	}

	st, err := svc.Stats(ctx, u.ID)
	if err != nil {
		log.Fatalf("failed to read stats: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s xp=%d level=%s\n", u.ID, email, password, st.XP, st.Level)
}
