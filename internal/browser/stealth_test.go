package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"
)

func TestShouldBlock(t *testing.T) {
	tests := []struct {
		name  string
		typ   network.ResourceType
		url   string
		block bool
	}{
		{"image", network.ResourceTypeImage, "https://playtomic.com/logo.png", true},
		{"font", network.ResourceTypeFont, "https://playtomic.com/a.woff2", true},
		{"media", network.ResourceTypeMedia, "https://playtomic.com/a.mp4", true},
		{"tracker script", network.ResourceTypeScript, "https://www.googletagmanager.com/gtm.js", true},
		{"app script", network.ResourceTypeScript, "https://playtomic.com/_next/static/chunks/main.js", false},
		{"availability xhr", network.ResourceTypeXHR, "https://playtomic.com/api/clubs/availability?date=2025-10-16", false},
		{"document", network.ResourceTypeDocument, "https://playtomic.com/clubs/padel-tallinn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.block, ShouldBlock(tt.typ, tt.url))
		})
	}
}

func TestBlockPatternsCoverRules(t *testing.T) {
	patterns := BlockPatterns()
	require.Len(t, patterns, len(blockedTypes)+len(trackerHosts))
}
