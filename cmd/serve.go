package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/costrisk-sim/internal/model"
	"github.com/sells-group/costrisk-sim/internal/monitoring"
	"github.com/sells-group/costrisk-sim/internal/simulate"
	"github.com/sells-group/costrisk-sim/internal/validate"
)

var servePort int

type simulateRequest struct {
	Dataset           rawRequestDataset `json:"dataset"`
	DataDate          string            `json:"data_date"`
	Frequency         string            `json:"frequency"`
	HorizonMonths     int               `json:"horizon_months"`
	NIterations       int               `json:"n_iterations"`
	EnableCorrelation *bool             `json:"enable_correlation"`
	// Seed is omitted or null when the caller wants a random seed
	// generated for this run and reported back on the response.
	Seed *int64 `json:"seed,omitempty"`
}

// rawRequestDataset is the wire shape of a dataset embedded in a
// simulate request body; it unmarshals straight into the domain types
// since JSON carries dates as RFC 3339 strings, same as time.Time's
// default marshaling.
type rawRequestDataset struct {
	Items       []model.CapexItem   `json:"capex_items"`
	ItemActions []model.CapexAction `json:"capex_actions"`
	Risks       []model.Risk        `json:"risks"`
	RiskActions []model.RiskAction  `json:"risk_actions"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP simulation server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runLog := monitoring.NewRunLog(1000)

		if cfg.Monitoring.Enabled {
			collector := monitoring.NewCollector(runLog)
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			checker := monitoring.NewChecker(collector, alerter, cfg.Monitoring)
			go checker.Run(ctx)
		}

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/simulate", handleSimulate(runLog))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// simulateResponse wraps a simulation result with the run ID assigned to
// this request, so a caller can correlate it against server logs or a
// later monitoring query.
type simulateResponse struct {
	RunID string `json:"run_id"`
	*simulate.Result
}

func handleSimulate(runLog *monitoring.RunLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := uuid.New().String()

		var req simulateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		dataDate, err := time.Parse("2006-01-02", req.DataDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid data_date, expected YYYY-MM-DD"})
			return
		}

		ds := model.Dataset{
			Items:       req.Dataset.Items,
			ItemActions: req.Dataset.ItemActions,
			Risks:       req.Dataset.Risks,
			RiskActions: req.Dataset.RiskActions,
		}

		normalized, verr := validate.Validate(ds)
		if verr != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Errors})
			return
		}

		enableCorrelation := true
		if req.EnableCorrelation != nil {
			enableCorrelation = *req.EnableCorrelation
		}

		simCfg := simulate.Config{
			DataDate:          dataDate,
			Frequency:         simulate.Frequency(orDefault(req.Frequency, "weekly")),
			HorizonMonths:     orDefaultInt(req.HorizonMonths, 12),
			NIterations:       orDefaultInt(req.NIterations, 10000),
			EnableCorrelation: enableCorrelation,
			CorrelationMethod: simulate.CorrelationCategory,
			Seed:              req.Seed,
			MaxConcurrency:    cfg.Simulation.MaxConcurrency,
		}

		zap.L().Info("simulation run started", zap.String("run_id", runID))

		result, err := simulate.SimulateCostEvolution(r.Context(), normalized, simCfg)
		recordRun(runLog, result, err)
		if err != nil {
			zap.L().Error("simulation run failed", zap.String("run_id", runID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error(), "run_id": runID})
			return
		}

		writeJSON(w, http.StatusOK, simulateResponse{RunID: runID, Result: result})
	}
}

func recordRun(runLog *monitoring.RunLog, result *simulate.Result, err error) {
	var numErr *simulate.NumericError
	record := monitoring.RunRecord{Timestamp: time.Now().UTC(), NumericError: errors.As(err, &numErr)}
	if result != nil {
		for _, cp := range result.Checkpoints {
			record.CheckpointsRun++
			record.Repaired = record.Repaired || cp.CorrelationRepaired
			if record.CheckpointsRun == 1 || cp.MinCorrelationEigenvalue < record.MinEigenvalue {
				record.MinEigenvalue = cp.MinCorrelationEigenvalue
			}
		}
	}
	runLog.Append(record)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
