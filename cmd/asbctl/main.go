package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"asb-storefront/internal/config"
	"asb-storefront/internal/database"
	"asb-storefront/internal/logging"
	"asb-storefront/internal/repositories"
	"asb-storefront/internal/seed"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "asbctl",
		Usage: "manage the ASB storefront database and storage",
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			storageCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "asbctl:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func withMigrator(fn func(*database.Migrator) error) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	migrator, err := database.NewMigrator(database.ConfigFromApp(cfg.Database))
	if err != nil {
		return err
	}
	defer migrator.Close()
	return fn(migrator)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or roll back schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "run pending migrations",
				Action: func(c *cli.Context) error {
					return withMigrator(func(m *database.Migrator) error {
						if err := m.Up(); err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, "migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(func(m *database.Migrator) error {
						if err := m.Down(c.Int("steps")); err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "rolled back %d migration(s)\n", c.Int("steps"))
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					return withMigrator(func(m *database.Migrator) error {
						version, dirty, err := m.Version()
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", version, dirty)
						return nil
					})
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "insert sample products, events and announcements into empty collections",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			db, err := database.NewConnection(database.ConfigFromApp(cfg.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return err
			}

			catalog := services.NewCatalogService(repositories.NewDocumentRepository(db.DB), logger)
			created, err := seed.Run(c.Context, catalog, time.Now(), logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d document(s)\n", created)
			return nil
		},
	}
}

func storageCommand() *cli.Command {
	return &cli.Command{
		Name:  "storage",
		Usage: "inspect and prepare upload storage",
		Subcommands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "create the R2 bucket and its CORS rules",
				Action: func(c *cli.Context) error {
					cfg, logger, err := setup()
					if err != nil {
						return err
					}
					if err := services.NewStorageFactory(cfg, logger).SetupR2Bucket(c.Context); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "bucket %s ready\n", cfg.R2.BucketName)
					return nil
				},
			},
			{
				Name:  "info",
				Usage: "print the storage configuration",
				Action: func(c *cli.Context) error {
					cfg, logger, err := setup()
					if err != nil {
						return err
					}
					factory := services.NewStorageFactory(cfg, logger)

					info := factory.GetStorageInfo()
					if err := factory.ValidateR2Configuration(); err != nil {
						info["r2_error"] = err.Error()
					}

					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(info)
				},
			},
		},
	}
}
