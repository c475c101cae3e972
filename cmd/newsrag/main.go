package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"newsrag/internal/config"
	"newsrag/internal/feeds"
	"newsrag/internal/index"
	"newsrag/internal/ingest"
	"newsrag/internal/llm"
	"newsrag/internal/rag"
	"newsrag/internal/server"
	"newsrag/internal/tutorial"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsrag",
	Short:   "RAG over RSS news feeds",
	Long:    "newsrag ingests RSS news feeds into a local vector index and answers questions about them with an LLM.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "init", "version", "tutorial":
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tutorialCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsrag", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsrag/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the feed table, LLM provider, and API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.Count()
		if err != nil {
			return fmt.Errorf("counting documents: %w", err)
		}
		urls := feeds.Load(cfg.Sources.File)

		fmt.Println("Index:")
		fmt.Printf("  Path: %s\n", store.Path())
		fmt.Printf("  Collection: %s\n", store.Collection())
		fmt.Printf("  Documents: %d\n", count)
		fmt.Println("\nSources:")
		fmt.Printf("  Feed table: %s\n", cfg.Sources.File)
		fmt.Printf("  Feeds listed: %d\n", len(urls))
		return nil
	},
}

// --- ingest command ---

var ingestURL string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest RSS feeds into the vector index",
	Long:  "Ingest every feed in the feed table, or a single feed with --url.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ing := ingest.New(cfg.Ingest, store)
		ctx := context.Background()

		if ingestURL != "" {
			n, err := ing.IngestFeed(ctx, ingestURL)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", ingestURL, err)
			}
			fmt.Printf("Ingested %d articles from %s\n", n, ingestURL)
			return nil
		}

		urls := feeds.Load(cfg.Sources.File)
		if len(urls) == 0 {
			fmt.Println("No feed URLs to ingest. Check the feed table in", cfg.Sources.File)
			return nil
		}

		result := ing.IngestAll(ctx, urls)
		fmt.Println("\nIngestion complete:")
		fmt.Printf("  Feeds ingested: %d\n", result.Feeds)
		fmt.Printf("  Feeds failed: %d\n", result.Failed)
		fmt.Printf("  Articles indexed: %d\n", result.Documents)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Ingest a single feed URL instead of the feed table")
}

// --- search command ---

var searchK int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Similarity search against the vector index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Search(context.Background(), args[0], searchK)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No matching documents. Run 'newsrag ingest' first.")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s (score %.3f)\n", i+1, r.Meta.Title, r.Score)
			if r.Meta.URL != "" {
				fmt.Printf("   %s\n", r.Meta.URL)
			}
			if r.Meta.Date != "" {
				fmt.Printf("   %s\n", r.Meta.Date)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "results", "k", 3, "Number of results to return")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RAG HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine := rag.New(store, cfg.Generation)
		ing := ingest.New(cfg.Ingest, store)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(engine, ing, cfg.Sources.DefaultFeed, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- tutorial command ---

var tutorialCmd = &cobra.Command{
	Use:   "tutorial",
	Short: "Show the RAG tutorial slideshow",
	Run: func(cmd *cobra.Command, args []string) {
		tutorial.Run(os.Stdout, os.Stdin)
	},
}

func openStore() (*index.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "newsrag.db")
	embedder := llm.CreateEmbedder(cfg.Generation)
	return index.Open(dbPath, embedder, cfg.Index.Collection)
}
