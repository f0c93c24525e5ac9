package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"store-admin/internal/models"
	"store-admin/internal/services"
	"store-admin/internal/storage"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newAuditCmd() *cobra.Command {
	var (
		limit  int
		user   string
		action string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the newest admin audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)

			var db *gorm.DB
			if cfg.UsesDatabase() {
				db, err = models.InitDB(cfg)
				if err != nil {
					return err
				}
			}
			kv, err := storage.OpenKV(cfg, db)
			if err != nil {
				return err
			}
			defer kv.Close()

			recorder := services.NewAuditRecorder(kv, cfg.Audit, logger)
			page, err := recorder.Query(ctx, services.AuditFilter{AdminUsername: user, Action: action}, 1, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tADMIN\tROLE\tACTION\tENTITY")
			for _, e := range page.Logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.AdminUsername, e.AdminRole, e.Action, e.EntityIDOrName)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d of %d entries\n", len(page.Logs), page.TotalCount)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to print")
	cmd.Flags().StringVar(&user, "user", "", "filter by admin username (substring)")
	cmd.Flags().StringVar(&action, "action", "", "filter by action, e.g. ADMIN_LOGOUT")
	return cmd
}
