package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/pipeline"
)

// newServeCmd creates the serve command, exposing diagram generation over
// HTTP for long-lived deployments.
func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagram generation over HTTP",
		Long: `Serve starts an HTTP service with two endpoints:

  POST /v1/diagrams   Accepts a discovery snapshot plus generation options
                      and returns the positioned graph and rendered artifacts.
  GET  /healthz       Liveness probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	runner := newRunner(nil, st, cfg, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", handleHealth)
	r.Post("/v1/diagrams", handleDiagrams(runner, logger))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// diagramRequest is the POST /v1/diagrams body: raw discovery data plus
// generation options. Relationships and data flows are derived server-side,
// so clients only need to post resources and rules.
type diagramRequest struct {
	Snapshot     *discovery.Snapshot `json:"snapshot"`
	DiagramTypes []string            `json:"diagram_types,omitempty"`
	Formats      []string            `json:"formats,omitempty"`
	ProjectName  string              `json:"project_name,omitempty"`
}

// diagramResponse carries the positioned graph and the rendered artifacts,
// keyed by format name. Artifact bytes are base64 in the JSON encoding.
type diagramResponse struct {
	Graph     *graph.ArchitectureGraph `json:"graph"`
	Artifacts map[string][]byte        `json:"artifacts,omitempty"`
}

func handleDiagrams(runner *pipeline.Runner, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req diagramRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Snapshot == nil {
			writeError(w, http.StatusBadRequest, "missing snapshot")
			return
		}
		req.Snapshot.Derive()

		opts := pipeline.Options{
			DiagramTypes: req.DiagramTypes,
			Formats:      req.Formats,
			ProjectName:  req.ProjectName,
			Logger:       logger,
		}

		g, err := runner.BuildGraph(r.Context(), req.Snapshot, opts)
		if err != nil {
			writeError(w, statusForError(err), errors.UserMessage(err))
			return
		}
		artifacts, err := runner.RenderGraph(r.Context(), g, opts)
		if err != nil {
			writeError(w, statusForError(err), errors.UserMessage(err))
			return
		}

		logger.Info("diagrams generated",
			"request_id", middleware.GetReqID(r.Context()),
			"pages", len(g.Pages), "formats", len(artifacts))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(diagramResponse{Graph: g, Artifacts: artifacts})
	}
}

// statusForError maps structured error codes to HTTP status codes.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDiagram,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidFilter,
		errors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSnapshotNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
