package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/logger"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
	"github.com/joeblew999/plat-uhi/internal/server"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

// Options defines all CLI flags and env vars for the UHI server.
// Flags: --host, --port, --access-token, --strategy, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_ACCESS_TOKEN, SERVICE_STRATEGY,
// SERVICE_LOG_LEVEL, SERVICE_LOG_FORMAT
type Options struct {
	Host        string `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int    `doc:"Port to listen on" short:"p" default:"8087"`
	AccessToken string `doc:"Map style access token (required)"`
	Strategy    string `doc:"Marker reconciliation strategy: diff or rebuild" default:"diff"`
	LogLevel    string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat   string `doc:"Log format: text or json" default:"text"`
}

func newServer(opts *Options) (*server.Server, error) {
	strategy, err := mapsync.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		AccessToken: opts.AccessToken,
		Strategy:    strategy,
		Logger:      logger.SetupWriter(os.Stderr, opts.LogLevel, opts.LogFormat),
	})
}

func mustServer(opts *Options) *server.Server {
	srv, err := newServer(opts)
	if errors.Is(err, surface.ErrMissingAccessToken) {
		log.Fatal("SERVICE_ACCESS_TOKEN is not set; the map cannot be created without it")
	}
	if err != nil {
		log.Fatalf("Server setup error: %v", err)
	}
	return srv
}

func main() {
	// SERVICE_* values may come from a local .env file; real env wins.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			srv = mustServer(opts)

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-uhi map server starting...\n")
			fmt.Printf("  Server:   %s\n", baseURL)
			fmt.Printf("  Strategy: %s\n", opts.Strategy)
			fmt.Println()
			fmt.Printf("  Stream:   %s/api/v1/map/stream\n", baseURL)
			fmt.Printf("  Docs:     %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI:  %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "uhi"
	cli.Root().Short = "Urban heat island map synchronization server"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if opts.AccessToken == "" {
				opts.AccessToken = "spec-export"
			}
			srv := mustServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// generate subcommand: dump a synthetic dataset with statistics
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a synthetic UHI dataset as JSON",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			points, _ := cmd.Flags().GetInt("points")
			days, _ := cmd.Flags().GetInt("days")
			seed, _ := cmd.Flags().GetUint64("seed")

			d := heat.Generate(heat.GenerateOptions{Points: points, Seed: seed})
			output, err := json.MarshalIndent(map[string]any{
				"success":    true,
				"data":       d.Points(),
				"statistics": heat.Summarize(d, days, time.Now()),
			}, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling dataset: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	generateCmd.Flags().IntP("points", "n", 100, "Number of points")
	generateCmd.Flags().Int("days", 30, "Analysis window in days")
	generateCmd.Flags().Uint64("seed", 0, "Random seed (0 for random)")
	cli.Root().AddCommand(generateCmd)

	cli.Run()
}
