package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/config"
	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/metrics"
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/stream"
	"github.com/pama-lee/ordo/pkg/tracing"
	"github.com/pama-lee/ordo/pkg/value"
)

// registry is the in-memory ruleset catalog serve loads at startup: one
// entry per distinct Config.Name, keeping whichever file defined it last.
type registry struct {
	mu   sync.RWMutex
	sets map[string]*ruleset.RuleSet
}

func newRegistry() *registry {
	return &registry{sets: make(map[string]*ruleset.RuleSet)}
}

func (reg *registry) loadDir(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" && ext != ".ordo" {
			return nil
		}

		r, err := loadRuleSet(path)
		if err != nil {
			printWarning(fmt.Sprintf("%s: %v", path, err))
			return nil
		}
		if err := r.Validate(); err != nil {
			printWarning(fmt.Sprintf("%s: invalid: %v", path, err))
			return nil
		}

		reg.mu.Lock()
		if _, exists := reg.sets[r.Config.Name]; exists {
			printWarning(fmt.Sprintf("%s redefines ruleset %q, overwriting", path, r.Config.Name))
		}
		reg.sets[r.Config.Name] = r
		reg.mu.Unlock()
		return nil
	})
}

func (reg *registry) get(name string) (*ruleset.RuleSet, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.sets[name]
	return r, ok
}

func (reg *registry) names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.sets))
	for name := range reg.sets {
		names = append(names, name)
	}
	return names
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	port, _ := cmd.Flags().GetUint16("port")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := newRegistry()
	if err := reg.loadDir(dir); err != nil {
		return fmt.Errorf("loading %s: %w", dir, err)
	}
	printInfo(fmt.Sprintf("loaded %d ruleset(s) from %s", len(reg.names()), dir))

	m := metrics.New(metrics.DefaultConfig())

	traceHub := stream.NewHub()
	defer traceHub.Shutdown()

	if cfg.Tracing.Enabled {
		tc := tracing.DefaultConfig()
		tc.ExporterType = cfg.Tracing.Exporter
		tc.OTLPEndpoint = cfg.Tracing.Endpoint
		if _, err := tracing.InitTracing(tc); err != nil {
			printWarning(fmt.Sprintf("tracing disabled: %v", err))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/stream", traceHub.ServeHTTP)
	mux.HandleFunc("/execute/", executeHandler(reg, m, traceHub))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		printInfo(fmt.Sprintf("serving on :%d (%d rulesets)", port, len(reg.names())))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(err)
		}
	}()

	return waitForShutdown(srv)
}

func executeHandler(reg *registry, m *metrics.Metrics, traceHub *stream.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/execute/")
		if name == "" {
			http.Error(w, "missing ruleset name", http.StatusBadRequest)
			return
		}

		rs, ok := reg.get(name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown ruleset %q", name), http.StatusNotFound)
			return
		}

		input := value.FromObject(value.NewObject())
		if r.ContentLength != 0 {
			var body []byte
			body, err := readAll(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if len(body) > 0 {
				input, err = value.FromJSON(body)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid input JSON: %v", err), http.StatusBadRequest)
					return
				}
			}
		}

		result, execErr := executor.Execute(rs, input, executor.Options{
			Context: r.Context(),
			Stream:  traceHub,
		})
		m.RecordResult(result, execErr)

		w.Header().Set("Content-Type", "application/json")
		if execErr != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"error": execErr.Err.Error(),
				"class": execErr.Class.String(),
				"step":  execErr.StepID,
			})
			return
		}

		resp := map[string]interface{}{
			"code":        result.Code,
			"message":     result.Message,
			"duration_us": result.DurationMicros,
		}
		if len(result.Output) > 0 {
			out := make(map[string]json.RawMessage, len(result.Output))
			for key, v := range result.Output {
				raw, err := v.MarshalCanonicalJSON()
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				out[key] = raw
			}
			resp["output"] = out
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err.Error() == "EOF" {
				return buf, nil
			}
			return nil, err
		}
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM and then drains srv.
func waitForShutdown(srv *http.Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	printWarning("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	printSuccess("server stopped gracefully")
	return nil
}
