package cmd

import (
	"propfirm/internal/config"
	"propfirm/internal/db"
	"propfirm/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configDir string
}

// env is what subcommands get after the root has loaded configuration.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "propctl",
		Short: "Operator tooling for the prop challenge engine",
		Long: `propctl manages a propfirm deployment:
schema migrations, bootstrap admins and development tokens.

Configuration is read the same way the server reads it: an optional
config.yaml plus environment variables such as DATABASE_URL and JWT_SECRET.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory holding config.yaml")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newTokenCmd(opts),
		newAdminCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func (o *rootOptions) load() (env, error) {
	cfg, err := config.Load(o.configDir)
	if err != nil {
		return env{}, err
	}
	log, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		return env{}, err
	}
	return env{cfg: cfg, log: log}, nil
}

func (e env) connect() (*sqlx.DB, error) {
	return db.Connect(e.cfg.DatabaseURL, e.cfg.Pool)
}
