package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/internal/adapters/database"
	"github.com/selivandex/portfolio-digest/internal/adapters/email"
	"github.com/selivandex/portfolio-digest/internal/composer"
	"github.com/selivandex/portfolio-digest/internal/subscribers"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// demoHoldings is the sample portfolio used for local development
var demoHoldings = []models.Holding{
	{Ticker: "NVDA", WeightPct: models.Weight(15)},
	{Ticker: "VTI", WeightPct: models.Weight(40)},
	{Ticker: "BND", WeightPct: models.Weight(25)},
	{Ticker: "AAPL", WeightPct: models.Weight(10)},
	{Ticker: "AMZN", WeightPct: models.Weight(10)},
}

func main() {
	addr := flag.String("email", "demo@example.com", "demo subscriber email")
	welcome := flag.Bool("welcome", false, "send the welcome email after seeding")
	flag.Parse()

	if err := run(context.Background(), *addr, *welcome); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Seed error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Seed complete.")
}

func run(ctx context.Context, addr string, welcome bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File,
		logger.WithService("portfolio-seed"),
		logger.WithFormat(cfg.Logging.Format),
	); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	fmt.Println("🌱 Seeding database…")

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sub := &models.Subscriber{
		Email:             addr,
		Timezone:          "America/Chicago",
		SendTime:          "08:00",
		IsActive:          true,
		WantsUrgentAlerts: true,
		Holdings:          demoHoldings,
	}

	repo := subscribers.NewRepository(db)
	id, err := repo.Upsert(ctx, sub)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Subscriber: %s (id: %s)\n", sub.Email, id)
	fmt.Printf("✓ Holdings: %s\n", formatHoldings(sub.Holdings))
	fmt.Printf("\n🔗 Holdings edit link:\n   %s\n\n", composer.HoldingsURL(cfg.Digest.AppURL, id))
	fmt.Println("📧 To run the digest now:")
	fmt.Println("   go run ./cmd/digest -once")

	if !welcome {
		return nil
	}

	comp, err := composer.New(cfg.Digest.AppURL, "")
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}

	msg, err := comp.Welcome(*sub)
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	sender := email.Select(&cfg.Email)
	result := sender.Send(ctx, msg)
	if !result.Success {
		return fmt.Errorf("failed to send welcome email: %s", result.Error)
	}

	logger.Info("welcome email sent",
		zap.String("to", sub.Email),
		zap.String("provider", sender.GetName()),
		zap.String("message_id", result.ID),
	)
	return nil
}

func formatHoldings(holdings []models.Holding) string {
	parts := make([]string, 0, len(holdings))
	for _, h := range holdings {
		parts = append(parts, fmt.Sprintf("%s:%s%%", h.Ticker, h.WeightOrZero().String()))
	}
	return strings.Join(parts, ", ")
}
