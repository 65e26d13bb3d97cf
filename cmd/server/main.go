package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pujan77/expense-tracker-backend/internal/config"
	"github.com/Pujan77/expense-tracker-backend/internal/httpapi"
	"github.com/Pujan77/expense-tracker-backend/internal/middleware"
	"github.com/Pujan77/expense-tracker-backend/internal/service"
	"github.com/Pujan77/expense-tracker-backend/internal/storage/sqlite"
	"github.com/Pujan77/expense-tracker-backend/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	families := service.NewFamilyService(store)
	expenses := service.NewExpenseService(store)
	settlements := service.NewSettlementService(store)
	budgets := service.NewBudgetService(store)

	mux := http.NewServeMux()
	httpapi.New(families, expenses, settlements, budgets).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, middleware.Logging(mux)); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
