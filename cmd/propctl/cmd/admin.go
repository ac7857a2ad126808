package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"propfirm/internal/db"
	"propfirm/internal/middleware"
	"propfirm/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var knownRoles = []string{
	middleware.RoleChallengesRead,
	middleware.RoleChallengesOverride,
	middleware.RoleAuditRead,
}

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage operators allowed onto /admin",
	}
	cmd.AddCommand(newAdminGrantCmd(opts))
	return cmd
}

func newAdminGrantCmd(opts *rootOptions) *cobra.Command {
	var (
		roles     []string
		super     bool
		grantedBy string
	)
	cmd := &cobra.Command{
		Use:   "grant <user-id>",
		Short: "Create an admin or merge roles into an existing one",
		Example: `  propctl admin grant ops-1 --super
  propctl admin grant analyst-7 --role challenges:read --role audit:read`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRoles(roles); err != nil {
				return err
			}
			if !super && len(roles) == 0 {
				return fmt.Errorf("nothing to grant: pass --super or at least one --role")
			}
			e, err := opts.load()
			if err != nil {
				return err
			}
			database, err := e.connect()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := grantAdmin(cmd.Context(), database, args[0], super, roles, grantedBy); err != nil {
				return err
			}
			e.log.Info("admin granted",
				zap.String("user_id", args[0]),
				zap.Bool("super", super),
				zap.Strings("roles", roles))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant: "+strings.Join(knownRoles, ", "))
	cmd.Flags().BoolVar(&super, "super", false, "grant every role")
	cmd.Flags().StringVar(&grantedBy, "by", "", "operator recorded as the grantor")
	return cmd
}

func checkRoles(roles []string) error {
	for _, role := range roles {
		known := false
		for _, candidate := range knownRoles {
			if role == candidate {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	return nil
}

func grantAdmin(ctx context.Context, database *sqlx.DB, userID string, super bool, roles []string, grantedBy string) error {
	admins := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	var createdBy *string
	if grantedBy != "" {
		createdBy = &grantedBy
	}
	data, err := json.Marshal(map[string]any{"is_super": super, "roles": roles})
	if err != nil {
		return err
	}
	return db.NewTxRunner(database).WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := admins.Upsert(ctx, tx, userID, super, roles, createdBy); err != nil {
			return err
		}
		return audit.Log(ctx, tx, grantedBy, "admin.grant", "admin", userID, string(data))
	})
}
