package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/config"
	"github.com/ecoguard/ecoguard/internal/domain"
)

// Fetcher renders pages with a headless browser and captures snapshots for
// the scrape heuristics. A single browser instance is shared; each fetch
// runs in its own browser context.
type Fetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     config.ScraperConfig
	logger  *zap.Logger

	// Bounds concurrent page renders
	sem chan struct{}

	closeOnce sync.Once
}

// NewFetcher starts playwright and launches the browser.
func NewFetcher(cfg config.ScraperConfig, logger *zap.Logger) (*Fetcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browserOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.BrowserPath != "" {
		browserOpts.ExecutablePath = playwright.String(cfg.BrowserPath)
	}

	browser, err := pw.Chromium.Launch(browserOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Fetcher{
		pw:      pw,
		browser: browser,
		cfg:     cfg,
		logger:  logger,
		sem:     make(chan struct{}, concurrency),
	}, nil
}

// Close shuts down the browser and playwright.
func (f *Fetcher) Close() error {
	var err error
	f.closeOnce.Do(func() {
		if f.browser != nil {
			f.browser.Close()
		}
		if f.pw != nil {
			err = f.pw.Stop()
		}
	})
	return err
}

// Fetch renders the target URL and captures a PageSnapshot. Absent elements
// leave their snapshot fields empty; only navigation failures are errors.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*PageSnapshot, error) {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return nil, domain.ValidationError("url", fmt.Sprintf("invalid URL: %s", target))
	}

	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	}
	if f.cfg.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(f.cfg.UserAgent)
	}

	browserCtx, err := f.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	resp, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(f.cfg.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, domain.ScrapeError(target, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return nil, domain.ScrapeError(target, fmt.Errorf("page returned status %d", resp.Status()))
	}

	// Let late-rendering frameworks settle
	page.WaitForTimeout(float64(f.cfg.SettleDelay.Milliseconds()))

	snap := &PageSnapshot{
		URL:      page.URL(),
		Hostname: parsed.Hostname(),
	}
	if final, err := url.Parse(page.URL()); err == nil && final.Host != "" {
		snap.Hostname = final.Hostname()
	}

	f.capture(page, snap)

	f.logger.Debug("captured page snapshot",
		zap.String("url", snap.URL),
		zap.Int("body_len", len(snap.BodyText)),
		zap.Int("links", len(snap.Links)),
	)

	return snap, nil
}

// capture fills the snapshot from the rendered DOM. Every lookup tolerates
// missing elements.
func (f *Fetcher) capture(page playwright.Page, snap *PageSnapshot) {
	if title, err := page.Title(); err == nil {
		snap.Title = title
	}

	if body, err := page.Locator("body").First().InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(5000),
	}); err == nil {
		if f.cfg.MaxTextLength > 0 && len(body) > f.cfg.MaxTextLength {
			body = body[:f.cfg.MaxTextLength]
		}
		snap.BodyText = body
	}

	snap.OGSiteName = f.attr(page, `meta[property="og:site_name"]`, "content")
	snap.ApplicationName = f.attr(page, `meta[name="application-name"]`, "content")
	snap.MetaDescription = f.attr(page, `meta[name="description"]`, "content")
	snap.LogoAlt = f.attr(page, `.logo img[alt]`, "alt")
	snap.BrandAlt = f.attr(page, `.brand img[alt]`, "alt")
	snap.HeaderLogoText = f.text(page, `header .logo`)
	snap.FirstHeading = f.text(page, `h1`)

	snap.Links = f.links(page)
}

func (f *Fetcher) attr(page playwright.Page, selector, name string) string {
	loc := page.Locator(selector).First()
	if count, err := loc.Count(); err != nil || count == 0 {
		return ""
	}
	value, err := loc.GetAttribute(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func (f *Fetcher) text(page playwright.Page, selector string) string {
	loc := page.Locator(selector).First()
	if count, err := loc.Count(); err != nil || count == 0 {
		return ""
	}
	value, err := loc.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func (f *Fetcher) links(page playwright.Page) []Link {
	base, _ := url.Parse(page.URL())

	locators := page.Locator("a[href]")
	count, err := locators.Count()
	if err != nil {
		return nil
	}

	links := make([]Link, 0, count)
	for i := 0; i < count; i++ {
		anchor := locators.Nth(i)
		href, err := anchor.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		text, _ := anchor.TextContent()

		// Resolve relative hrefs against the final page URL
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}

		links = append(links, Link{Href: href, Text: strings.TrimSpace(text)})
	}

	return links
}
