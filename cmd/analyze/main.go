package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/config"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/gamification"
	"github.com/ecoguard/ecoguard/internal/llm"
	"github.com/ecoguard/ecoguard/internal/scraper"
	"github.com/ecoguard/ecoguard/internal/services/analysis"
	"github.com/ecoguard/ecoguard/internal/services/research"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

func main() {
	godotenv.Load()

	targetURL := flag.String("url", "", "Company website URL to analyze")
	depth := flag.String("depth", "standard", "Analysis depth: quick, standard, deep")
	noResearch := flag.Bool("no-research", false, "Skip external research")
	jsonOutput := flag.Bool("json", false, "Print the result as JSON")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if *targetURL == "" {
		red.Println("❌ -url is required")
		fmt.Println("   Usage: analyze -url https://example.com [-depth standard]")
		os.Exit(1)
	}

	analysisDepth := domain.AnalysisDepth(*depth)
	if !analysisDepth.IsValid() {
		red.Printf("❌ Invalid depth %q (quick, standard, deep)\n", *depth)
		os.Exit(1)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		red.Println("❌ OPENAI_API_KEY not set")
		fmt.Println("   Add it to .env file or set environment variable")
		os.Exit(1)
	}

	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{"/dev/null"}
		logger, _ = zcfg.Build()
	}
	defer logger.Sync()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		red.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *noResearch {
		cfg.Research.Enabled = false
	}

	if !*jsonOutput {
		printBanner()
		fmt.Printf("🎯 Target: %s\n", *targetURL)
		fmt.Printf("🔬 Depth:  %s\n", analysisDepth)
		fmt.Println()
	}

	ctx := context.Background()
	startTime := time.Now()

	// Launch browser
	fetcher, err := scraper.NewFetcher(cfg.Scraper, logger)
	if err != nil {
		red.Printf("❌ Failed to start browser: %v\n", err)
		os.Exit(1)
	}
	defer fetcher.Close()

	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:        apiKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.Model,
		MaxTokens:     cfg.OpenAI.MaxTokens,
		Temperature:   cfg.OpenAI.Temperature,
		Timeout:       cfg.OpenAI.Timeout,
		RateLimitRPM:  cfg.OpenAI.RateLimitRPM,
		EnableCaching: false,
	})

	providers := []research.Provider{
		research.NewDuckDuckGoProvider(cfg.Research.Timeout),
		research.NewWikipediaProvider(cfg.Research.Timeout),
		research.NewStubProvider(),
	}
	aggregator := research.NewAggregator(cfg.Research, providers, nil, logger)

	// One-shot run: nothing is persisted
	settings := domain.DefaultSettings(uuid.Nil)
	settings.AnalysisDepth = analysisDepth
	service := analysis.NewService(
		fetcher,
		aggregator,
		llmClient,
		gamification.NewEngine(logger),
		discardHistory{},
		&memProgress{},
		memSettings{settings: settings},
		nil,
		logger,
	)

	bar := newSpinner("   Scraping, researching, analyzing...", *jsonOutput)
	done := make(chan bool)
	go spin(bar, done)

	outcome, err := service.Analyze(ctx, uuid.New(), *targetURL)

	close(done)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	if err != nil {
		red.Printf("❌ Analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(outcome.Result)
		return
	}

	printResult(outcome.Result)
	dim.Printf("\n⏱  Completed in %.1fs\n", time.Since(startTime).Seconds())
}

func printBanner() {
	cyan.Println(`
╔══════════════════════════════════════════════╗
║              E C O G U A R D                 ║
║     Company Sustainability Analysis CLI      ║
╚══════════════════════════════════════════════╝`)
}

func newSpinner(description string, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
	)
}

func spin(bar *progressbar.ProgressBar, done chan bool) {
	if bar == nil {
		<-done
		return
	}
	for {
		select {
		case <-done:
			return
		default:
			bar.Add(1)
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func printResult(result *domain.AnalysisResult) {
	fmt.Println()
	bold.Printf("━━━ %s (%s) ━━━\n", result.CompanyName, result.Domain)

	if result.OverallScore == nil {
		yellow.Println("   ⚠ No score could be extracted")
		dim.Printf("   %s\n", result.RawResponse)
		return
	}

	score := *result.OverallScore
	scoreColor := red
	switch {
	case score >= 70:
		scoreColor = green
	case score >= 40:
		scoreColor = yellow
	}
	scoreColor.Printf("   Overall Score: %d/100 (%s confidence)\n", score, result.Confidence)

	fmt.Println()
	dim.Println("   Breakdown:")
	dim.Printf("      • Environmental: %d/25\n", result.Breakdown.Environmental)
	dim.Printf("      • Social:        %d/25\n", result.Breakdown.Social)
	dim.Printf("      • Governance:    %d/25\n", result.Breakdown.Governance)
	dim.Printf("      • Materials:     %d/25\n", result.Breakdown.Materials)

	if len(result.KeyFindings) > 0 {
		fmt.Println()
		green.Println("   Key Findings:")
		for _, f := range result.KeyFindings {
			fmt.Printf("      ✓ %s\n", f)
		}
	}

	if len(result.Improvements) > 0 {
		fmt.Println()
		yellow.Println("   Suggested Improvements:")
		for _, imp := range result.Improvements {
			fmt.Printf("      • %s\n", imp)
		}
	}

	if len(result.Certifications) > 0 {
		fmt.Println()
		cyan.Println("   Certifications:")
		for _, c := range result.Certifications {
			fmt.Printf("      ★ %s\n", c)
		}
	}

	if result.ResearchApplied {
		fmt.Println()
		dim.Println("   External research was applied to this analysis")
	}
}

// discardHistory satisfies the history surface for one-shot runs.
type discardHistory struct{}

func (discardHistory) Insert(_ context.Context, _ *domain.HistoryItem) error { return nil }

// memProgress keeps gamification state in memory for the run.
type memProgress struct {
	progress *domain.UserProgress
}

func (m *memProgress) Get(_ context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	if m.progress == nil {
		return nil, domain.NotFoundError("progress", userID.String())
	}
	return m.progress, nil
}

func (m *memProgress) Save(_ context.Context, progress *domain.UserProgress) error {
	m.progress = progress
	return nil
}

// memSettings serves the settings chosen by flags.
type memSettings struct {
	settings *domain.Settings
}

func (m memSettings) Get(_ context.Context, _ uuid.UUID) (*domain.Settings, error) {
	return m.settings, nil
}
