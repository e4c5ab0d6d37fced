// subtrans — subtitle translation service backed by a local LLM.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/subtrans/subtrans/cache"
	"github.com/subtrans/subtrans/config"
	"github.com/subtrans/subtrans/i18n"
	"github.com/subtrans/subtrans/langmeta"
	"github.com/subtrans/subtrans/server"
	"github.com/subtrans/subtrans/settings"
	"github.com/subtrans/subtrans/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var configPath string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subtrans",
		Short: "Subtitle translator backed by a local LLM",
		Long: `subtrans — subtitle translator backed by a local LLM.

Translates SRT subtitle files and plain text while preserving timing lines,
markup and formatting codes exactly. Text is extracted from the document,
sent to the model in token-budgeted chunks, and reinserted into the original
structure, so a malformed model response can never corrupt the file.

Commands:
  translate   Translate a subtitle file or plain text
  serve       Run the HTTP translation service
  status      Show configuration and backend health
  auth        Manage backend API keys

Backends:
  ollama   Local Ollama server (default, no auth)
  openai   Any OpenAI-compatible endpoint (API key)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to subtrans.yaml (optional)")

	root.AddCommand(
		newTranslateCmd(),
		newServeCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("subtrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate (file or stdin → file or stdout)
// ---------------------------------------------------------------------------

type translateArgs struct {
	input      string
	output     string
	sourceLang string
	targetLang string
	backend    string
	backendURL string
	model      string
	apiKey     string
	legacy     bool
	parallel   int
	useCache   bool
	verbose    bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate a subtitle file or plain text",
		Long: `Translate an SRT subtitle file or plain text.

Reads from the given file (or stdin when omitted), writes to --output
(or stdout). Subtitle documents keep their timing lines and markup byte
for byte; only the spoken text changes.

Examples:
  subtrans translate movie.srt -t pt-br -o movie.pt-br.srt
  subtrans translate movie.srt -t es --model llama3
  echo "Hello world" | subtrans translate -t pt-br`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.input = args[0]
			}
			return runTranslate(a)
		},
	}

	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&a.sourceLang, "source-lang", "s", "", "Source language (default: auto)")
	cmd.Flags().StringVarP(&a.targetLang, "target-lang", "t", "pt-br", "Target language")
	cmd.Flags().StringVar(&a.backend, "backend", "ollama", "Backend type: ollama or openai")
	cmd.Flags().StringVar(&a.backendURL, "backend-url", "", "Backend base URL (default: from config)")
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (default: from config)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key for openai backend")
	cmd.Flags().BoolVar(&a.legacy, "legacy", false, "Send whole blocks through the model (no extraction)")
	cmd.Flags().IntVar(&a.parallel, "parallel", 0, "Translate up to N chunks concurrently")
	cmd.Flags().BoolVar(&a.useCache, "cache", false, "Reuse translations from the local translation memory")
	cmd.Flags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose progress output")

	cmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{translate.ProviderOllama, translate.ProviderOpenAI}, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("target-lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"pt-br", "pt-pt", "es", "fr", "de", "it", "ja", "ko", "zh-cn", "en"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(a translateArgs) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if a.input != "" && !fileExists(a.input) {
		return fmt.Errorf("input file not found: %s", a.input)
	}

	text, err := readInput(a.input)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("input is empty")
	}

	opts, err := buildOptions(a, cfg)
	if err != nil {
		return err
	}

	opts.OnLog = func(format string, args ...any) {
		if a.verbose {
			logInfo(format, args...)
		}
	}
	opts.OnError = logWarning
	opts.OnProgress = func(done, total int) {
		if a.verbose {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d", progressBar(done*100/total, 20), done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	var memory *cache.Memory
	if a.useCache {
		dir, dirErr := settings.DataDir()
		if dirErr == nil {
			memory, dirErr = cache.Load(dir)
		}
		if dirErr != nil {
			logWarning("translation cache disabled: %v", dirErr)
		} else {
			opts.Cache = memory
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target := langmeta.Resolve(a.targetLang)
	logInfo("%s → %s %s", i18n.T("Translating..."), target.Name, target.Flag)

	start := time.Now()
	var translated string
	if a.legacy {
		translated, err = translate.TranslateLegacy(ctx, text, a.sourceLang, a.targetLang, opts)
	} else {
		translated, err = translate.Translate(ctx, text, a.sourceLang, a.targetLang, opts)
	}
	if err != nil {
		return err
	}

	if err := writeOutput(a.output, translated); err != nil {
		return err
	}

	if memory != nil {
		if err := memory.Save(); err != nil {
			logWarning("saving translation cache: %v", err)
		} else if pairs, entries := memory.Stats(); entries > 0 {
			logInfo("translation memory: %d entries across %d language pairs", entries, pairs)
		}
	}

	logSuccess("%s (%.1fs)", i18n.T("Translation complete"), time.Since(start).Seconds())
	return nil
}

// buildOptions assembles translate options from flags, config and the
// credential store.
func buildOptions(a translateArgs, cfg config.Service) (translate.Options, error) {
	model := a.model
	if model == "" {
		model = cfg.Model
	}
	baseURL := a.backendURL
	if baseURL == "" {
		baseURL = cfg.BackendURL()
	}

	var provider translate.Provider
	switch a.backend {
	case translate.ProviderOllama:
		provider = translate.OllamaProvider(baseURL, model, cfg.RequestTimeout)
	case translate.ProviderOpenAI:
		key := resolveAPIKey(a.apiKey, a.backend)
		if key == "" {
			return translate.Options{}, fmt.Errorf("openai backend needs an API key: use --api-key or 'subtrans auth login'")
		}
		if a.backendURL == "" {
			if stored := settings.GetBaseURL(a.backend); stored != "" {
				baseURL = stored
			}
		}
		provider = translate.OpenAIProvider(baseURL, key, model, cfg.RequestTimeout)
	default:
		return translate.Options{}, fmt.Errorf("unknown backend %q (want ollama or openai)", a.backend)
	}

	tuning, err := loadTuning()
	if err != nil {
		logWarning("tuning file ignored: %v", err)
	}

	prompts, err := loadPrompts()
	if err != nil {
		logWarning("prompts file ignored: %v", err)
	}

	return translate.Options{
		Provider:      provider,
		Tuning:        tuning,
		Encoding:      cfg.Encoding,
		TokenBudget:   cfg.SafeChunkTokens,
		Prompts:       prompts,
		RequestDelay:  500 * time.Millisecond,
		MaxConcurrent: a.parallel,
		Verbose:       a.verbose,
	}, nil
}

// resolveAPIKey looks up a key in flag > environment > credential store
// order.
func resolveAPIKey(flagKey, backendID string) string {
	if flagKey != "" {
		return flagKey
	}
	if env := os.Getenv("SUBTRANS_API_KEY"); env != "" {
		return env
	}
	return settings.GetAPIKey(backendID)
}

func loadTuning() (config.Tuning, error) {
	path, err := settings.TuningFilePath()
	if err != nil {
		return config.DefaultTuning(), nil
	}
	return config.LoadTuning(path)
}

// loadPrompts returns the prompts.json override when one exists, nil
// otherwise so the tuning template selection stays in effect.
func loadPrompts() (*translate.PromptSet, error) {
	path, err := settings.PromptsFilePath()
	if err != nil || !fileExists(path) {
		return nil, nil
	}
	return translate.LoadPrompts(path)
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Println(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// ---------------------------------------------------------------------------
// serve (HTTP service)
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation service",
		Long: `Run the HTTP translation service.

Endpoints:
  POST /translate   Translate plain text or a subtitle document
  GET  /health      Service and backend health
  GET  /            Service info

Configuration comes from environment variables (SUBTRANS_*, OLLAMA_*),
optionally overridden by a subtrans.yaml file via --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: from config)")

	return cmd
}

func runServe(port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	tuning, err := loadTuning()
	if err != nil {
		logWarning("tuning file ignored: %v", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	logInfo("%s http://0.0.0.0:%d", i18n.T("Server listening"), cfg.Port)
	return server.New(cfg, tuning, log).Start()
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ---------------------------------------------------------------------------
// status (read-only: configuration + backend health)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and backend health",
		Long: `Show the effective configuration and check whether the LLM backend
is reachable. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sConfiguration%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Backend:       %s\n", cfg.BackendURL())
	fmt.Fprintf(os.Stderr, "  Model:         %s\n", cfg.Model)
	fmt.Fprintf(os.Stderr, "  Encoding:      %s\n", cfg.Encoding)
	fmt.Fprintf(os.Stderr, "  Chunk budget:  %d tokens\n", cfg.SafeChunkTokens)
	fmt.Fprintf(os.Stderr, "  Port:          %d\n", cfg.Port)
	if dir, err := settings.DataDir(); err == nil {
		fmt.Fprintf(os.Stderr, "  Data dir:      %s\n", dir)
	}
	fmt.Fprintln(os.Stderr)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(cfg.BackendURL() + "/api/tags")
	if err != nil {
		logWarning("%s: %v", i18n.T("Backend is not reachable"), err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		logSuccess("Backend is reachable")
	} else {
		logWarning("Backend returned status %d", resp.StatusCode)
	}
	return nil
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage backend API keys",
		Long: `Manage API keys for OpenAI-compatible backends.

The local Ollama backend needs no authentication. Keys are stored with
0600 permissions in the subtrans data directory.

Examples:
  subtrans auth login --api-key sk-...                 Store a key
  subtrans auth login --api-key sk-... --base-url URL  Custom endpoint
  subtrans auth logout                                 Remove the key
  subtrans auth list                                   Show stored keys`,
	}

	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthListCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		backend string
		apiKey  string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("--api-key is required")
			}
			if err := settings.SetAPIKeyWithBaseURL(backend, apiKey, baseURL); err != nil {
				return err
			}
			logSuccess("Stored key for %s in %s", backend, settings.AuthFilePath())
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", translate.ProviderOpenAI, "Backend ID")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to store")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom endpoint base URL")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(backend); err != nil {
				return err
			}
			logSuccess("Removed credentials for %s", backend)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", translate.ProviderOpenAI, "Backend ID")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stored credentials",
		Run: func(cmd *cobra.Command, args []string) {
			store := settings.Load()
			if len(store) == 0 {
				logInfo("No stored credentials")
				return
			}
			for id, cred := range store {
				line := fmt.Sprintf("  %-12s %s", id, settings.MaskKey(cred.Key))
				if cred.BaseURL != "" {
					line += "  " + cred.BaseURL
				}
				fmt.Fprintln(os.Stderr, line)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// progressBar renders a colored bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := width * percent / 100
	color := colorRed
	switch {
	case percent >= 80:
		color = colorGreen
	case percent >= 40:
		color = colorYellow
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
