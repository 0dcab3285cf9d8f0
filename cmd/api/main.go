package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/config"
	"github.com/makerloop/commerce-backend/internal/db"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/notify"
	"github.com/makerloop/commerce-backend/internal/payment"
	"github.com/makerloop/commerce-backend/internal/server"
	"github.com/rs/zerolog"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := conn.AutoMigrate(
		&model.Project{},
		&model.Product{},
		&model.Batch{},
		&model.Sku{},
		&model.OptionValue{},
		&model.StockAdjustment{},
		&model.StockUnit{},
		&model.Cart{},
		&model.CartLineItem{},
		&model.Order{},
		&model.Payment{},
		&model.Shipment{},
		&model.OrderComment{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto migrate failed")
	}

	clk := clock.UTC{}
	gateway := payment.NewMock()
	notifier := notify.LogNotifier{Log: log}

	srv := server.New(conn, gateway, notifier, clk, log, cfg.CartTTL, cfg.SweepInterval, gitSHA, buildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Sweeper.Run(ctx)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("starting server")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
