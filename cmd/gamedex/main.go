package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ChallX/gamedex"
	"github.com/ChallX/gamedex/gemini"
	gamedexhttp "github.com/ChallX/gamedex/http"
	"github.com/ChallX/gamedex/htmltomarkdown"
	"github.com/ChallX/gamedex/pipeline"
	"github.com/ChallX/gamedex/resty"
	"github.com/ChallX/gamedex/rod"
	gamedexslog "github.com/ChallX/gamedex/slog"
	"github.com/ChallX/gamedex/sqlite"
	"github.com/ChallX/gamedex/trafilatura"
	"github.com/alecthomas/kong"
	"google.golang.org/genai"
)

// defaultSite is the forum scraped when GAMEDEX_SITE is unset.
const defaultSite = "f95zone.to"

// forumRPS is the per-domain request rate against the forum and file hosts.
const forumRPS = 1.0

func main() {
	os.Exit(run())
}

// run holds the deferred cleanup so it still happens on a non-zero exit;
// os.Exit in main would skip it.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	defer m.Close()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Target forum domain.
	Site string

	// SQLite database used by the record store.
	DB *sqlite.DB

	// Browser lifecycle, released on Close.
	browser *rod.BrowserManager
	session *rod.SessionManager
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	site := os.Getenv("GAMEDEX_SITE")
	if site == "" {
		site = defaultSite
	}
	return &Main{
		DBPath: defaultDBPath(),
		Site:   site,
	}
}

// Close gracefully stops the program, releasing the browser before the
// database.
func (m *Main) Close() error {
	if m.session != nil {
		_ = m.session.Close()
		m.session = nil
	}
	if m.browser != nil {
		_ = m.browser.Close()
		m.browser = nil
	}
	if m.DB != nil {
		err := m.DB.Close()
		m.DB = nil
		return err
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("gamedex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'gamedex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set GAMEDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}

	deps.DB = m.DB
	deps.Records = sqlite.NewRecordService(m.DB)
	deps.Broker = pipeline.NewBroker()

	// Browser-backed dependencies only for commands that scrape.
	if cmd == "serve" || cmd == "scrape" {
		if err := m.wireScraping(ctx, deps, logger, stderr); err != nil {
			return err
		}
	}

	if cmd == "serve" {
		deps.Server = &gamedexhttp.Server{
			Runner:  deps.Pipeline,
			Broker:  deps.Broker,
			Records: deps.Records,
			Session: deps.Session,
			Logger:  logger,
			Site:    m.Site,
			Addr:    cli.Serve.Addr,
		}
	}

	if cmd == "status" {
		// Status without a browser reports from credentials alone.
		deps.Session = statusOnlySession{}
	}

	return kongCtx.Run(deps)
}

// wireScraping builds the full pipeline: browser, session, scraper,
// extractor, reconciler, and size resolver.
func (m *Main) wireScraping(ctx context.Context, deps *Dependencies, logger *slog.Logger, stderr io.Writer) error {
	browser, err := rod.NewBrowserManager()
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
		return fmt.Errorf("failed to start browser: %w", err)
	}
	m.browser = browser

	creds := gamedex.Credentials{
		Username: os.Getenv("GAMEDEX_USER"),
		Password: os.Getenv("GAMEDEX_PASS"),
	}
	session := rod.NewSessionManager(browser, creds, m.Site, logger)
	m.session = session

	limiter := pipeline.NewDomainLimiter(forumRPS)

	var scraper gamedex.Scraper = &rod.Scraper{
		Session:   session,
		Manager:   browser,
		Content:   trafilatura.NewExtractor(),
		Converter: htmltomarkdown.NewConverter(),
		Limiter:   limiter,
		Site:      m.Site,
		Logger:    logger,
	}
	scraper = gamedexslog.NewLoggingScraper(scraper, logger)

	var generator gamedex.TextGenerator
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		generator = gemini.NewGenerator(client, os.Getenv("GAMEDEX_MODEL"))
	} else {
		logger.Warn("GEMINI_API_KEY not set, using deterministic extraction only")
	}

	var extractor gamedex.RecordExtractor = &pipeline.StructuredExtractor{
		Generator: generator,
		Logger:    logger,
	}
	extractor = gamedexslog.NewLoggingExtractor(extractor, logger)

	deps.Session = session
	deps.Pipeline = &pipeline.Pipeline{
		Scraper:    scraper,
		Session:    session,
		Extractor:  extractor,
		Reconciler: pipeline.NewReconciler(deps.Records, logger),
		Sizes: &pipeline.SizeResolver{
			Prober:  resty.NewProber(0),
			Limiter: limiter,
			Logger:  logger,
		},
		Records: deps.Records,
		Broker:  deps.Broker,
		Logger:  logger,
	}
	return nil
}

// statusOnlySession reports session state from configuration without a
// browser.
type statusOnlySession struct{}

func (statusOnlySession) EnsureAuthenticated(ctx context.Context) bool { return false }

func (statusOnlySession) Status(ctx context.Context) gamedex.SessionStatus {
	creds := gamedex.Credentials{
		Username: os.Getenv("GAMEDEX_USER"),
		Password: os.Getenv("GAMEDEX_PASS"),
	}
	if !creds.Configured() {
		return gamedex.SessionNotConfigured
	}
	return gamedex.SessionNotAuthenticated
}

func (statusOnlySession) Invalidate() {}

func defaultDBPath() string {
	if path := os.Getenv("GAMEDEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "gamedex.db"
	}
	dir := filepath.Join(home, ".gamedex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "gamedex.db")
}
