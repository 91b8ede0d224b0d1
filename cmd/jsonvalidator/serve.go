package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/internal/httpapi"
	"github.com/reoring/jsonvalidator/internal/store"
	"github.com/reoring/jsonvalidator/middleware"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP validation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("JSONVALIDATOR_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./jsonvalidator.sqlite",
				Sources: cli.EnvVars("JSONVALIDATOR_DB_PATH"),
				Usage:   "SQLite file holding named schemas",
			},
			&cli.StringFlag{
				Name:    "base-dir",
				Sources: cli.EnvVars("JSONVALIDATOR_BASE_DIR"),
				Usage:   "directory external $ref documents are read from",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			addr := c.String("addr")

			openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			db, err := store.Open(openCtx, c.String("db-path"))
			cancel()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Printf("close store: %v", closeErr)
				}
			}()

			handler := httpapi.NewHandler(store.NewSchemas(db),
				jsonvalidator.WithBaseDir(c.String("base-dir")),
				jsonvalidator.WithParseOptions(middleware.DefaultParseOptions()),
			)
			server := httpapi.NewServer(addr, handler)

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
