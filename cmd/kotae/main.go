// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/normalize"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/store"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kotae server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "ingest":
		runIngest()
	case "clear":
		runClear()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, embedding calls, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pipeline := components.Pipeline
	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		func(path string) {
			if _, err := pipeline.IngestFile(context.Background(), path); err != nil {
				logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(pipeline, cfg, logger, watchSvc, resolvedConfigPath)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printQueryUsage prints query subcommand usage.
func printQueryUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kotae query [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The answer is generated from the most similar stored documents and cites
which of them it used.

Examples:
  kotae query what is the refund policy
  kotae query "what is the refund policy"      # same as above
  kotae query --top-k 3 shipping times
  kotae query --output json "refund policy"    # structured JSON for other apps
`)
}

// buildQueryText joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting (e.g. "refund policy" vs refund policy).
func buildQueryText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// queryArgsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "kotae query \"question\" -top-k 3"
// would otherwise leave -top-k unparsed.
func queryArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runQuery() {
	queryArgs := queryArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer directly without a server)")
	topK := fs.Int("top-k", 0, "number of documents to retrieve (default 5)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printQueryUsage(fs) }
	_ = fs.Parse(queryArgs)

	if fs.NArg() < 1 {
		printQueryUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQueryText(fs.Args())
	if queryStr == "" {
		printQueryUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	request := models.QueryRequest{Query: queryStr, TopK: *topK}

	if *serverURL != "" {
		// Use HTTP API when a server is running (avoids clobbering its store artifacts).
		result, err := queryViaHTTP(*serverURL, request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteQueryResult(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct mode (no server running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	result, err := components.Pipeline.Query(context.Background(), request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL string, request models.QueryRequest) (*models.QueryResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = ingest directly without a server)")
	formatFlag := fs.String("format", "", "input format override for a single file: json, csv, or pdf (default: by extension)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	outFormat, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}

	var paths []string
	if info.IsDir() {
		// Directory mode ingests every supported file; the format override
		// applies to single files only.
		paths, err = listSupportedFiles(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list directory: %v\n", err)
			os.Exit(1)
		}
		if len(paths) == 0 {
			fmt.Printf("No supported files (json, csv, pdf) found in %s\n", path)
			return
		}
	} else {
		paths = []string{path}
	}

	var components *Components
	if *serverURL == "" {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err = initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
	}

	failures := 0
	for _, p := range paths {
		var stats *models.IngestStats
		var err error
		if components != nil {
			stats, err = ingestDirect(components, p, *formatFlag, info.IsDir())
		} else {
			stats, err = ingestViaHTTP(*serverURL, p, *formatFlag)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed for %s: %v\n", p, err)
			failures++
			continue
		}
		if info.IsDir() {
			fmt.Printf("%s: ", p)
		}
		if err := cli.WriteIngestStats(os.Stdout, stats, outFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// listSupportedFiles walks root and returns all files whose extension maps to
// a supported format.
func listSupportedFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if _, fErr := normalize.FormatFromPath(path); fErr == nil {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func ingestDirect(components *Components, path, formatOverride string, isDirMode bool) (*models.IngestStats, error) {
	ctx := context.Background()
	if formatOverride == "" || isDirMode {
		return components.Pipeline.IngestFile(ctx, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return components.Pipeline.Ingest(ctx, content, normalize.Format(formatOverride))
}

func ingestViaHTTP(serverURL, path, formatOverride string) (*models.IngestStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if formatOverride != "" {
		if err := mw.WriteField("format", formatOverride); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(serverURL+"/api/v1/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var stats models.IngestStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &stats, nil
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = clear directly without a server)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Clear failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Println("Store cleared")
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if err := components.Pipeline.Clear(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Store cleared")
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	StorePath         string   `json:"store_path,omitempty"`
	EmbeddingProvider string   `json:"embedding_provider,omitempty"`
	EmbeddingModel    string   `json:"embedding_model,omitempty"`
	AnswerModel       string   `json:"answer_model,omitempty"`
	WatchDirectories  []string `json:"watch_directories,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents          int                   `json:"documents"`
	Dimension          int                   `json:"dimension"`
	Resumed            bool                  `json:"resumed"`
	LoadFallbackReason string                `json:"load_fallback_reason,omitempty"`
	DiskUsageBytes     int64                 `json:"disk_usage_bytes"`
	Config             *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read the store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	outFormat, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		st := components.Pipeline.Status()
		status = statusResponse{
			Documents:          st.Documents,
			Dimension:          st.Dimension,
			Resumed:            st.Resumed,
			LoadFallbackReason: st.Reason,
			DiskUsageBytes:     st.DiskBytes,
			Config: &statusConfigResponse{
				StorePath:         cfg.Store.Path,
				EmbeddingProvider: cfg.Embedding.Provider,
				EmbeddingModel:    cfg.Embedding.Model,
				AnswerModel:       cfg.Answer.Model,
				WatchDirectories:  cfg.Watch.Directories,
			},
		}
	}

	if outFormat == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	core := rag.Status{
		Documents: status.Documents,
		Dimension: status.Dimension,
		Resumed:   status.Resumed,
		Reason:    status.LoadFallbackReason,
		DiskBytes: status.DiskUsageBytes,
	}
	_ = cli.WriteStatus(os.Stdout, &core, cli.OutputText)
	if status.Config != nil {
		fmt.Println()
		fmt.Println("# configuration")
		if status.Config.StorePath != "" {
			fmt.Printf("store_path:         %s\n", status.Config.StorePath)
		}
		if status.Config.EmbeddingProvider != "" {
			fmt.Printf("embedding_provider: %s\n", status.Config.EmbeddingProvider)
		}
		if status.Config.EmbeddingModel != "" {
			fmt.Printf("embedding_model:    %s\n", status.Config.EmbeddingModel)
		}
		if status.Config.AnswerModel != "" {
			fmt.Printf("answer_model:       %s\n", status.Config.AnswerModel)
		}
		for _, d := range status.Config.WatchDirectories {
			fmt.Printf("watch_directory:    %s\n", d)
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kotae watch <add|remove|list> [path]")
		fmt.Println("  kotae watch add <path>     Add directory to watch")
		fmt.Println("  kotae watch remove <path>  Remove directory from watch")
		fmt.Println("  kotae watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kotae watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kotae watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the starter config")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Printf("%s already exists (use --force to overwrite)\n", *configPath)
		os.Exit(1)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(*configPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
	fmt.Println("Set OPENAI_API_KEY in your environment or a .env file; it is never stored in the config.")
}

// Components holds initialized services.
type Components struct {
	Store    *store.Store
	Outcome  store.Outcome
	Pipeline *rag.Pipeline
}

func (c *Components) Close() {
	if c.Pipeline != nil {
		_ = c.Pipeline.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, outcome, err := store.Open(store.Config{Path: cfg.Store.Path, Dimension: cfg.Store.Dimension}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderMock:
		embedder = embedding.NewMockEmbedder(cfg.Store.Dimension)
	default:
		embedOpts := []embedding.OpenAIOption{
			embedding.WithModel(cfg.Embedding.Model),
			embedding.WithDimensions(cfg.Store.Dimension),
		}
		if cfg.OpenAI.BaseURL != "" {
			embedOpts = append(embedOpts, embedding.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		if debug && logger != nil {
			embedOpts = append(embedOpts, embedding.WithLogger(logger))
		}
		embedder = embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, embedOpts...)
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)

	chatOpts := []answer.ChatOption{
		answer.WithModel(cfg.Answer.Model),
		answer.WithMaxTokens(cfg.Answer.MaxTokens),
		answer.WithTemperature(cfg.Answer.Temperature),
	}
	if cfg.OpenAI.BaseURL != "" {
		chatOpts = append(chatOpts, answer.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	completer := answer.NewChatCompleter(cfg.OpenAI.APIKey, chatOpts...)

	genOpts := []answer.GeneratorOption{
		answer.WithMaxAttempts(cfg.Answer.MaxAttempts),
		answer.WithRetryDelay(time.Duration(cfg.Answer.RetryDelaySeconds) * time.Second),
	}
	if logger != nil {
		genOpts = append(genOpts, answer.WithLogger(logger))
	}
	generator := answer.NewGenerator(completer, genOpts...)

	pipeline := rag.NewPipeline(st, outcome, embedder, generator, rag.WithLogger(logger))

	return &Components{
		Store:    st,
		Outcome:  outcome,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - Retrieval-augmented question answering over your documents

Usage:
  kotae server [flags]            Start the HTTP server
  kotae query [flags] <question>  Answer a question from stored documents
  kotae ingest [flags] <path>     Ingest a file or directory (json, csv, pdf)
  kotae clear [flags]             Remove all stored documents
  kotae status [flags]            Show store status
  kotae watch <add|remove|list>   Manage watched directories
  kotae init [flags]              Write a starter config.yaml
  kotae version                   Show version
  kotae help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging (file events, embedding calls, etc.)

Query Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to answer directly without a server.
  --top-k int        Number of documents to retrieve (default: 5)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to ingest directly.
  --format string    Force input format for a single file: json, csv, or pdf
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to read the store directly.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  kotae init
  kotae server
  kotae ingest faq.json
  kotae ingest --format csv export.dat
  kotae ingest ./docs
  kotae query what is the refund policy
  kotae query --output json "refund policy"   # structured JSON for other apps
  kotae status
  kotae watch add /path/to/drop-folder
  kotae clear`)
}
