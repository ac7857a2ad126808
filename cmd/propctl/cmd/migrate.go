package cmd

import (
	"io/fs"
	"os"

	"propfirm/internal/migrate"
	"propfirm/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Long:  "Applies migrations in file name order, skipping those already recorded in schema_migrations. The embedded schema is used unless --dir is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			database, err := e.connect()
			if err != nil {
				return err
			}
			defer database.Close()

			var source fs.FS = migrations.FS
			if dir != "" {
				source = os.DirFS(dir)
			}
			applied, err := migrate.Up(cmd.Context(), database, source, e.log)
			if err != nil {
				return err
			}
			e.log.Info("migrations complete", zap.Int("applied", len(applied)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	return cmd
}
