// Package slots turns the rendered availability grid into normalized,
// priced slots.
package slots

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// Block is one availability marker as rendered.
type Block struct {
	ResourceID string
	Start      string
	End        string
}

// Harvest reads every availability marker in html.
func Harvest(html string, locs locator.Set) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var blocks []Block
	doc.Find(locs.SlotMarker.CSS).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, Block{
			ResourceID: strings.TrimSpace(s.AttrOr(locs.Marker.Resource, "")),
			Start:      s.AttrOr(locs.Marker.Start, ""),
			End:        s.AttrOr(locs.Marker.End, ""),
		})
	})
	return blocks, nil
}

// Resources builds the per-venue metadata index by walking resource rows.
func Resources(html string, locs locator.Set) (map[string]models.Resource, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	out := make(map[string]models.Resource)
	doc.Find(locs.ResourceRow.CSS).Each(func(_ int, row *goquery.Selection) {
		id := strings.TrimSpace(row.AttrOr(locs.ResourceIDAttr, ""))
		if id == "" {
			return
		}
		if _, seen := out[id]; seen {
			return
		}

		res := models.Resource{
			ID:   id,
			Name: strings.TrimSpace(row.Find(locs.ResourceName.CSS).First().Text()),
		}
		row.Find(locs.ResourceTags.CSS).Each(func(_ int, tag *goquery.Selection) {
			text := strings.ToLower(tag.Text())
			switch {
			case strings.Contains(text, "single"):
				res.Size = "single"
			case strings.Contains(text, "double"):
				res.Size = "double"
			}
			switch {
			case strings.Contains(text, "outdoor"):
				res.Location = "outdoor"
			case strings.Contains(text, "indoor"):
				res.Location = "indoor"
			}
		})
		out[id] = res
	})
	return out, nil
}
