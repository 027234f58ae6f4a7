package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/config"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/redis"
)

// deps are the connections commands open lazily. Tests swap them out.
type deps struct {
	openStore func(cfg *config.Config) (db.Store, error)
	migrate   func(cfg *config.Config) error
	timings   func(cfg *config.Config) timingsSource
}

func defaultDeps() deps {
	return deps{
		openStore: func(cfg *config.Config) (db.Store, error) {
			if err := cfg.RequireDatabase(); err != nil {
				return nil, err
			}
			if err := db.Init(cfg.DatabaseURL); err != nil {
				return nil, err
			}
			return db.NewStore(db.DB), nil
		},
		migrate: func(cfg *config.Config) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			if err := db.Init(cfg.DatabaseURL); err != nil {
				return err
			}
			return db.RunMigrations(cfg.MigrationsPath)
		},
		timings: func(cfg *config.Config) timingsSource {
			if cfg.RedisAddress == "" {
				return aladhan.NewClient(cfg.AladhanBaseURL, nil)
			}
			redis.InitRedis(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
			return aladhan.NewClient(cfg.AladhanBaseURL, redis.NewJSONCache(redis.Rdb))
		},
	}
}

// NewRootCmd creates the masjidctl command tree.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, defaultDeps())
}

func newRootCmd(version string, d deps) *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:     "masjidctl",
		Short:   "Administer a masjidboard installation",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	current := func() *config.Config { return cfg }
	rootCmd.AddCommand(newMigrateCmd(current, d))
	rootCmd.AddCommand(newAddUserCmd(current, d))
	rootCmd.AddCommand(newTimetableCmd(current, d))
	return rootCmd
}
