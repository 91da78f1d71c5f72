package browser

import (
	"strings"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
)

// Fingerprint fields every session presents.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.9,et;q=0.8"
	Locale         = "en-US"
	ViewportWidth  = 1366
	ViewportHeight = 900
)

// StealthScript runs before any page script and hides the usual automation
// tells: the webdriver flag, empty plugin and language lists, the WebGL
// vendor/renderer strings and the notifications permission shortcut.
const StealthScript = `(() => {
  try {
    Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
    window.chrome = { runtime: {} };
    Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
    Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
    const origQuery = window.navigator.permissions && window.navigator.permissions.query;
    if (origQuery) {
      window.navigator.permissions.query = (p) =>
        p && p.name === 'notifications'
          ? Promise.resolve({ state: Notification.permission })
          : origQuery.call(window.navigator.permissions, p);
    }
    const patchGL = (proto) => {
      if (!proto) return;
      const getParameter = proto.getParameter;
      proto.getParameter = function (param) {
        if (param === 37445) return 'Intel Inc.';
        if (param === 37446) return 'Intel Iris OpenGL Engine';
        return getParameter.call(this, param);
      };
    };
    patchGL(window.WebGLRenderingContext && WebGLRenderingContext.prototype);
    patchGL(window.WebGL2RenderingContext && WebGL2RenderingContext.prototype);
  } catch (e) {}
})();`

var blockedTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage: true,
	network.ResourceTypeFont:  true,
	network.ResourceTypeMedia: true,
}

var trackerHosts = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"connect.facebook.net",
	"hotjar.com",
	"cdn.segment.com",
	"clarity.ms",
	"analytics.tiktok.com",
}

// BlockPatterns are the request patterns the engine pauses so ShouldBlock
// can decide on them.
func BlockPatterns() []*fetch.RequestPattern {
	patterns := []*fetch.RequestPattern{}
	for t := range blockedTypes {
		patterns = append(patterns, &fetch.RequestPattern{ResourceType: t})
	}
	for _, host := range trackerHosts {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: "*" + host + "*"})
	}
	return patterns
}

// ShouldBlock reports whether a request is aborted: images, fonts, media and
// known trackers.
func ShouldBlock(resourceType network.ResourceType, url string) bool {
	if blockedTypes[resourceType] {
		return true
	}
	for _, host := range trackerHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}
