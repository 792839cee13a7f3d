package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/deep-research/pkg/archive"
	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/peer"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

var (
	query   string
	depth   int
	breadth int
)

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "deep-research",
		Short: "A terminal-based deep research agent",
		Long:  `deep-research recursively expands a query into sub-queries, searches the web, extracts learnings, and follows the questions they raise until the depth budget runs out, then writes a report.`,
		Run: func(cmd *cobra.Command, args []string) {
			queryFlagChanged := cmd.Flags().Changed("query")

			if !queryFlagChanged {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Print("Enter research query: ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
				if query == "" {
					slog.Error("Query cannot be empty")
					os.Exit(1)
				}
			} else if query == "" {
				slog.Error("--query flag provided but empty")
				os.Exit(1)
			}

			if depth == 0 {
				depth = cfg.Depth
			}
			if breadth == 0 {
				breadth = cfg.Breadth
			}

			slog.Info("Starting research", "query", query, "depth", depth, "breadth", breadth)

			ctx := context.Background()
			engine, cleanup, err := buildEngine(ctx, cfg)
			if err != nil {
				slog.Error("Error initializing engine", "error", err)
				os.Exit(1)
			}
			defer cleanup()

			rec, err := engine.Run(ctx, query, research.Budget{Depth: depth, Breadth: breadth})
			if err != nil {
				slog.Error("Error running research", "error", err)
				os.Exit(1)
			}

			report, err := engine.RenderReport(ctx, rec)
			if err != nil {
				slog.Error("Error rendering report", "error", err)
				os.Exit(1)
			}

			reportFilename := fmt.Sprintf("report_%d.md", time.Now().Unix())
			if err := os.WriteFile(reportFilename, []byte(report), 0644); err != nil {
				slog.Warn("Failed to save report locally", "error", err)
			} else {
				slog.Info("Saved report", "filename", reportFilename)
			}

			fmt.Println(report)
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research query")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 0, "Recursion depth budget (1-5)")
	rootCmd.Flags().IntVarP(&breadth, "breadth", "b", 0, "Sub-queries per expansion (1-5)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildEngine(ctx context.Context, cfg *config.Config) (*research.Engine, func(), error) {
	cleanup := func() {}

	llm, err := clients.GoogleAi(ctx, clients.ModelType(cfg.FastModel))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to init LLM: %w", err)
	}

	apiKey := cfg.SerperApiKey
	if search.Provider(cfg.SearchProvider) == search.BraveProvider {
		apiKey = cfg.BraveApiKey
	}
	searcher, err := search.NewSearcher(search.Provider(cfg.SearchProvider), apiKey)
	if err != nil {
		return nil, cleanup, err
	}

	engine := research.NewEngine(research.Config{MaxResults: cfg.MaxResults}, llm, searcher)

	if cfg.PeerURL != "" {
		engine.Rounds = peer.NewClient(cfg.PeerURL)
	}

	// Source archiving needs postgres; without DATABASE_URL the
	// research still runs, it just keeps no corpus.
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = db.Close

		arc, err := archive.NewFromConfig(ctx, db, cfg)
		if err != nil {
			slog.Warn("Source archive disabled", "error", err)
		} else {
			engine.Archiver = arc
		}
	}

	return engine, cleanup, nil
}
