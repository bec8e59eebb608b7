package main

import (
	"flag"

	"pto-tracker/internal/config"
	"pto-tracker/internal/repository"
	"pto-tracker/internal/service"

	"github.com/sirupsen/logrus"
)

func main() {
	dryRun := flag.Bool("dryrun", false, "roll back instead of committing")
	all := flag.Bool("all", false, "migrate every row instead of the first 1000")
	flag.Parse()

	cfg := config.GetConfig()
	logrus.SetLevel(cfg.LogLevel)

	db, err := repository.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	store, err := repository.NewStore(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create repositories")
	}
	defer store.Close()

	result, err := service.NewLegacyMigrationService(store, cfg).Migrate(service.MigrateOptions{
		DryRun: *dryRun,
		All:    *all,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Migration failed")
	}

	logrus.WithFields(logrus.Fields{
		"migrated": result.Migrated,
		"broken":   len(result.Broken),
		"capped":   result.Capped,
		"dry_run":  result.DryRun,
	}).Info("Legacy PTO migration finished")
}
