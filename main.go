package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"calendar-booking-server/internal/config"
	"calendar-booking-server/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calendar-booking-server",
		Usage: "availability and booking backend for the portfolio calendar",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, the scheduler and (optionally) the notification worker",
				Action: serveCmd,
			},
			{
				Name:   "migrate",
				Usage:  "migrate the SQL schema and generate the slot window",
				Action: migrateCmd,
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash suitable for ADMIN_PASSWORD_HASH",
				ArgsUsage: "<password>",
				Action:    hashPasswordCmd,
			},
		},
		Action: serveCmd,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func migrateCmd(c *cli.Context) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Database.Driver == "memory" {
		return errors.New("migrate needs a SQL database; set DB_DRIVER")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.service.EnsureWindow(c.Context)
	if err != nil {
		return fmt.Errorf("generate slot window: %w", err)
	}
	logger.Info("migration complete", zap.String("driver", cfg.Database.Driver), zap.Int("slotsInserted", n))
	return nil
}

func hashPasswordCmd(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		return cli.Exit("usage: calendar-booking-server hash-password <password>", 2)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(hash))
	return nil
}
