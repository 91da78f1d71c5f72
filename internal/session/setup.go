package session

import (
	"context"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/shehryarbajwa/courtscout/internal/browser"
)

// setupActions applies the fixed fingerprint to a fresh tab: viewport,
// timezone, locale, user agent, extra headers, the stealth patch and
// request blocking.
func setupActions(timezone string) []chromedp.Action {
	return []chromedp.Action{
		network.Enable(),
		runtime.Enable(),
		emulation.SetDeviceMetricsOverride(browser.ViewportWidth, browser.ViewportHeight, 1, false),
		emulation.SetTimezoneOverride(timezone),
		emulation.SetLocaleOverride().WithLocale(browser.Locale),
		emulation.SetUserAgentOverride(browser.UserAgent).
			WithAcceptLanguage(browser.AcceptLanguage).
			WithPlatform("Win32"),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language":           browser.AcceptLanguage,
			"Upgrade-Insecure-Requests": "1",
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(browser.StealthScript).Do(ctx)
			return err
		}),
		fetch.Enable().WithPatterns(browser.BlockPatterns()),
	}
}
