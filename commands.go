package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/api"
	"github.com/sadopc/suivi/internal/export"
	"github.com/sadopc/suivi/internal/logging"
	"github.com/sadopc/suivi/internal/store"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open(logging.ForServer)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.cfg.RequireSecret(); err != nil {
				return err
			}
			if addr == "" {
				addr = d.cfg.Server.Addr
			}

			srv := api.New(d.store, d.auth, d.weeks, d.logger.Named("api"), api.Options{
				CORSOrigins: d.cfg.Server.CORSOrigins,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Listen(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			d.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every employee's recorded days",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			write, ok := map[string]func([]export.Row, string) error{
				"csv":  export.ToCSV,
				"xlsx": export.ToXLSX,
				"json": export.ToJSON,
			}[format]
			if !ok {
				return fmt.Errorf("unknown format %q (csv, xlsx or json)", format)
			}

			d, err := open(logging.ForServer)
			if err != nil {
				return err
			}
			defer d.Close()

			users, err := d.store.ListUsers()
			if err != nil {
				return err
			}
			docs, err := d.store.ListMonthDocuments()
			if err != nil {
				return err
			}
			rows := export.BuildRows(users, docs)

			if out == "" {
				out = export.Filename(time.Now(), format)
			}
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, export.Filename(time.Now(), format))
			}
			if err := write(rows, out); err != nil {
				if errors.Is(err, export.ErrNoData) {
					return errors.New("nothing to export: no employee has recorded any day")
				}
				return err
			}

			d.logger.Info("export written", zap.String("path", out), zap.Int("rows", len(rows)))
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default activites_employes_<date>.<format>)")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userAddCmd(), userListCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var (
		u        store.User
		password string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an active account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open(logging.ForServer)
			if err != nil {
				return err
			}
			defer d.Close()

			u.Role = store.RoleEmployee
			if admin {
				u.Role = store.RoleAdmin
			}
			created, err := d.auth.CreateAccount(u, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", created.Role, created.Email, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&u.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (6 characters or more)")
	cmd.Flags().StringVar(&u.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&u.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&u.Position, "position", "", "Position")
	cmd.Flags().BoolVar(&admin, "admin", false, "Give the account the admin role")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open(logging.ForServer)
			if err != nil {
				return err
			}
			defer d.Close()

			users, err := d.store.ListUsers()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tPOSITION\tROLE\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.Email, u.FullName(), u.Position, u.Role, u.IsActive)
			}
			return tw.Flush()
		},
	}
}
