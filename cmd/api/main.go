package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cashflow/internal/config"
	"github.com/MrJamesThe3rd/cashflow/internal/database"
	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	dirStore "github.com/MrJamesThe3rd/cashflow/internal/directory/store"
	"github.com/MrJamesThe3rd/cashflow/internal/export"
	cashflowHttp "github.com/MrJamesThe3rd/cashflow/internal/http"
	dirHandler "github.com/MrJamesThe3rd/cashflow/internal/http/directory"
	exportHandler "github.com/MrJamesThe3rd/cashflow/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/cashflow/internal/http/importfile"
	txHandler "github.com/MrJamesThe3rd/cashflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/http/web"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/cashflow/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		directoryService   = directory.NewService(dirStore.New(db))
		transactionService = transaction.NewService(txStore.New(db), directoryService)
		importService      = importer.NewService(transactionService, directoryService)
		exportService      = export.NewService(transactionService)
	)

	pages, err := web.NewHandler(transactionService, directoryService, importService)
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	router := cashflowHttp.New(
		cashflowHttp.Options{Timeout: cfg.Server.Timeout, AllowedOrigins: cfg.Server.CORSOrigins},
		txHandler.NewHandler(transactionService),
		dirHandler.NewHandler(directoryService),
		importHandler.NewHandler(importService),
		exportHandler.NewHandler(exportService),
		pages,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
