package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"store-admin/internal/services"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the admin directory, seeding default accounts if it is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := services.New(cmdContext(cmd), cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tACTIVE")
			for _, a := range svc.Directory.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", a.ID, a.Username, a.Role, a.IsActive)
			}
			return w.Flush()
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
