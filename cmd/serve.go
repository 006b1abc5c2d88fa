package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/report"
	"github.com/sells-group/agent-eval/internal/sink"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve evaluation results over HTTP",
	Long:  "Read-only API over the configured sink: records, run summaries, and health.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		snk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer snk.Close() //nolint:errcheck

		r := buildRouter(snk)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("results API listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// buildRouter assembles the read-only results API.
func buildRouter(snk sink.Sink) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/records", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		records, err := snk.Query(req.Context(), sink.Filter{
			RunID:      req.URL.Query().Get("run"),
			TestCaseID: req.URL.Query().Get("case"),
			Status:     model.RecordStatus(req.URL.Query().Get("status")),
			Limit:      limit,
		})
		if err != nil {
			zap.L().Error("records query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		if records == nil {
			records = []model.ExecutionRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/runs/{runID}/summary", func(w http.ResponseWriter, req *http.Request) {
		runID := chi.URLParam(req, "runID")
		records, err := snk.Query(req.Context(), sink.Filter{RunID: runID})
		if err != nil {
			zap.L().Error("summary query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		if len(records) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, report.Summarize(runID, records))
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}
