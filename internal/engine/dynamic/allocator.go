package dynamic

import (
	"github.com/chromedp/chromedp"

	"github.com/maialino123/ecomate-extract/internal/utils/headers"
)

// AllocatorConfig describes the Chrome process.
type AllocatorConfig struct {
	ExecPath  string
	Headless  bool
	UserAgent string
	Proxy     string
}

func allocatorOptions(cfg AllocatorConfig) []chromedp.ExecAllocatorOption {
	ua := cfg.UserAgent
	if ua == "" {
		ua = headers.DefaultUserAgent
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("lang", "zh-CN"),
		chromedp.UserAgent(ua),
	}
	if cfg.ExecPath != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(cfg.ExecPath)}, opts...)
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}
	return opts
}
