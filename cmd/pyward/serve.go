package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/api"
	"github.com/aideng18/PyWard/internal/security"
	"github.com/aideng18/PyWard/internal/storage"
)

func newServeCmd() *cobra.Command {
	var (
		addr       string
		dbPath     string
		bootstrap  string
		sessionTTL time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs and waivers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = appCfg.Server.Addr
			}
			if dbPath == "" {
				dbPath = appCfg.Database.DSN
			}
			db, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.CreateSchema(); err != nil {
				return err
			}

			if bootstrap != "" {
				user, pass, ok := strings.Cut(bootstrap, ":")
				if !ok || user == "" || pass == "" {
					return fmt.Errorf("--bootstrap-admin wants user:password")
				}
				hash, err := security.HashPassword(pass)
				if err != nil {
					return err
				}
				if _, err := db.CreateUser(user, hash, storage.RoleAdmin); err != nil {
					// an existing user is fine on restart
					slog.Warn("bootstrap admin not created", "user", user, "err", err)
				} else {
					slog.Info("bootstrap admin created", "user", user)
				}
			}

			srv := &api.Server{
				DB:              db,
				UserStore:       db,
				Logger:          slog.Default(),
				SessionDuration: sessionTTL,
			}
			slog.Info("listening", "addr", addr)
			return http.ListenAndServe(addr, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&bootstrap, "bootstrap-admin", "", "create an admin user on start (user:password)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", 12*time.Hour, "session lifetime")
	return cmd
}
