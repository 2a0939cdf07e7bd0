package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/permitleads/leadstack/config"
	"github.com/permitleads/leadstack/internal/database"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/server"
	"github.com/permitleads/leadstack/services"
)

func main() {
	app := &cli.App{
		Name:  "leadstack",
		Usage: "municipal permit lead routing engine",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(c *cli.Context) error {
					_, db := mustInit()
					if err := repository.MigrateDB(db); err != nil {
						log.Fatalf("Database migration failed: %v", err)
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "Start the application server",
				Action: func(c *cli.Context) error {
					cfg, db := mustInit()

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("LeadStack starting up...")

					srv, err := server.NewServer(cfg, db)
					if err != nil {
						log.Fatalf("Server setup failed: %v", err)
					}

					if err := srv.Run(); err != nil {
						log.Fatalf("Server startup failed: %v", err)
					}

					log.Println("Shutdown complete")
					return nil
				},
			},
			{
				Name:  "distribute",
				Usage: "Run one distribution cycle over all active automation classes",
				Action: func(c *cli.Context) error {
					cfg, db := mustInit()
					appLogger := initLogger(cfg)

					repos := repository.InitRepositories(db)
					svcs, err := services.InitServices(cfg, appLogger, repos)
					if err != nil {
						log.Fatalf("Service initialization failed: %v", err)
					}
					defer svcs.Publisher.Close()

					results, err := svcs.Distributor.RunAll(context.Background())
					if err != nil {
						log.Fatalf("Distribution cycle failed: %v", err)
					}

					accepted := 0
					for _, result := range results {
						accepted += result.Accepted
					}
					log.Printf("Distribution cycle completed: %d classes run, %d leads accepted", len(results), accepted)
					return nil
				},
			},
			{
				Name:  "reset-counters",
				Usage: "Zero the daily lead counter on every automation class",
				Action: func(c *cli.Context) error {
					_, db := mustInit()

					repos := repository.InitRepositories(db)
					if err := repos.AutomationClassRepository.ResetDailyCounters(context.Background()); err != nil {
						log.Fatalf("Counter reset failed: %v", err)
					}
					log.Println("Daily lead counters reset")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mustInit() (*config.Config, *gorm.DB) {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}
	if cfg == nil {
		log.Fatalf("config is empty")
	}

	db, err := database.NewConnection(&database.DatabaseConfig{
		DBName:          cfg.DatabaseConfig.DBName,
		Host:            cfg.DatabaseConfig.Host,
		Port:            cfg.DatabaseConfig.Port,
		User:            cfg.DatabaseConfig.User,
		Password:        cfg.DatabaseConfig.Password,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
		SSLMode:         cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}

	return cfg, db
}

func initLogger(cfg *config.Config) logger.Logger {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	return appLogger
}
