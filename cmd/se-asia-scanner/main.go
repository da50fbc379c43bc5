package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ahjaypee/se-asia-scanner/internal/convert"
	"github.com/ahjaypee/se-asia-scanner/internal/extraction"
	"github.com/ahjaypee/se-asia-scanner/internal/geo"
	"github.com/ahjaypee/se-asia-scanner/internal/rates"
	"github.com/ahjaypee/se-asia-scanner/internal/scan"
	"github.com/ahjaypee/se-asia-scanner/internal/vision"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("se-asia-scanner")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "se-asia-scanner.db", "History database file path")
		photoPath      = fs.StringLong("photos", "./photos", "Photo storage directory path")
		recognizerType = fs.StringLong("recognizer", "gemini", "Recognizer type: 'gemini', 'ollama' or 'tesseract'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2-vl)")
		ocrLanguage    = fs.StringLong("ocr-language", "eng", "Tesseract language for the local OCR recognizer")
		rateURL        = fs.StringLong("rate-url", "", "Exchange rate API base URL (default: open.er-api.com)")
		rateCachePath  = fs.StringLong("rate-cache", "rate-cache.db", "Rate cache database file path")
		rateCacheTTL   = fs.DurationLong("rate-cache-ttl", time.Hour, "How long cached rate tables stay fresh")
		geoURL         = fs.StringLong("geo-url", "", "Geolocation API base URL (default: ipapi.co); 'off' disables suggestions")
		noGlyphStrip   = fs.BoolLong("no-glyph-strip", "Disable stripping of currency-glyph noise fused onto OCR amounts")
		bareAmounts    = fs.BoolLong("bare-amounts", "Accept whole-number amounts for currencies without minor units (IDR, VND)")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SE_ASIA_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize history database
	slog.Info("Initializing history database...")
	db, err := scan.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize recognizer based on type
	var recognizer vision.Recognizer
	switch *recognizerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini recognizer...", "model", *geminiModel)
		recognizer, err = vision.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = vision.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "tesseract":
		slog.Info("Initializing local OCR recognizer...", "language", *ocrLanguage)
		recognizer, err = vision.NewTesseract(*ocrLanguage)
		if err != nil {
			slog.Error("Failed to initialize Tesseract", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid recognizer type", "type", *recognizerType, "valid", "gemini, ollama or tesseract")
		os.Exit(1)
	}
	defer recognizer.Close()

	// Initialize photo storage
	slog.Info("Initializing photo storage...")
	store, err := scan.NewLocalStorage(*photoPath)
	if err != nil {
		slog.Error("Failed to initialize photo storage", "error", err)
		os.Exit(1)
	}

	// Initialize rate source with its cache
	rateCache, err := rates.NewCache(*rateCachePath, rates.NewClient(*rateURL), *rateCacheTTL)
	if err != nil {
		slog.Error("Failed to initialize rate cache", "error", err)
		os.Exit(1)
	}
	defer rateCache.Close()
	converter := convert.New(rateCache)

	// Geolocation-based currency suggestions are optional
	var locator geo.Locator
	if *geoURL != "off" {
		locator = geo.NewIPLocator(*geoURL)
	}

	extractCfg := extraction.Config{
		StripGlyphNoise: !*noGlyphStrip,
		BareAmounts:     *bareAmounts,
	}

	// Initialize service
	scanService := scan.NewService(db, recognizer, store, converter, locator, extractCfg)

	// Initialize server
	basicAuth := scan.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := scan.NewServer(scanService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
