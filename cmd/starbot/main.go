package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	corecmd "github.com/m3rciful/starbot/core/cmd"
	coreconfig "github.com/m3rciful/starbot/core/config"
	"github.com/m3rciful/starbot/core/database"
	"github.com/m3rciful/starbot/core/logger"
	coretelegram "github.com/m3rciful/starbot/core/telegram"
	"github.com/m3rciful/starbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/starbot/core/telegram/helpers"
	"github.com/m3rciful/starbot/core/telegram/router"
	"github.com/m3rciful/starbot/internal/fulfillment"
	"github.com/m3rciful/starbot/internal/orders"
	"github.com/m3rciful/starbot/internal/purchase"
	"github.com/m3rciful/starbot/internal/wallet"
)

type app struct {
	cfg     *coreconfig.Config
	db      *sqlx.DB
	handler *purchase.Handler
}

type configCarrier struct {
	cfg *coreconfig.Config
}

func (c *configCarrier) CoreConfig() *coreconfig.Config { return c.cfg }

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return &configCarrier{cfg: cfg}, nil
}

func bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	var (
		db       *sqlx.DB
		recorder orders.Recorder = orders.NopRecorder{}
	)
	if cfg.Database.Enabled() {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, err
		}
		conn, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		db = conn
		recorder = orders.NewStore(db)
	}

	walletClient := wallet.NewClient(cfg.Wallet)
	starsClient := fulfillment.NewClient(cfg.Fulfillment)
	flow := purchase.NewFlow(walletClient, starsClient, recorder, cfg.Pricing.UnitPriceUSD)

	return &app{
		cfg:     cfg,
		db:      db,
		handler: purchase.NewHandler(flow),
	}, nil
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handler.Start,
		Description: "Begin buying stars",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handler.Cancel,
		Description: "Cancel the current purchase",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     helpHandler(reg),
		Description: "Show available commands",
	})

	if err := reg.RegisterCallback(purchase.CancelCallback, a.handler.CancelFromCallback); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes,
		router.TextRoute(a.handler, reg, router.TextOptions{}),
		router.CallbackRoute(reg, router.CallbackOptions{}),
	)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}

func helpHandler(reg *coretelegram.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var b strings.Builder
		b.WriteString("Available commands:\n")
		for _, cmd := range reg.ListCommands(true) {
			fmt.Fprintf(&b, "%s - %s\n", cmd.Text, cmd.Description)
		}
		return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
	}
}

func main() {
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadConfig,
		Bootstrap:         bootstrap,
	})
	if err != nil {
		log.Fatalf("starbot: %v", err)
	}
}
