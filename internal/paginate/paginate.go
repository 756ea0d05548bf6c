// Package paginate walks connpass listings page by page.
package paginate

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/connpass-attendance/internal/extract"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
)

// Extractor turns one listing page into items in document order.
type Extractor[T any] func(page *goquery.Selection) ([]T, error)

// Paginate fetches start, extracts its items and follows the paging
// control's "next" link, resolved by appending its href to base, until a page
// has no next link. Items are returned in visit order without deduplication.
//
// A page that cannot be fetched ends the walk early and the items gathered so
// far are returned without error. Extraction and paging-control failures are
// returned as errors together with the items gathered before them.
func Paginate[T any](ctx context.Context, f fetcher.Fetcher, start, base string, extractItems Extractor[T]) ([]T, error) {
	var items []T

	url := start
	for page := 1; ; page++ {
		doc, err := f.Fetch(ctx, url)
		if err != nil {
			if errors.Is(err, fetcher.ErrFetch) {
				logger.Warn("listing page unavailable, stopping pagination", logger.Fields{
					"url":  url,
					"page": page,
				})
				return items, nil
			}
			return items, err
		}

		found, err := extractItems(doc.Selection)
		if err != nil {
			return items, fmt.Errorf("extracting %s: %w", url, err)
		}
		items = append(items, found...)

		next, ok, err := extract.NextLink(doc.Selection)
		if err != nil {
			return items, fmt.Errorf("paging %s: %w", url, err)
		}
		if !ok {
			logger.Debug("pagination finished", logger.Fields{
				"start": start,
				"pages": page,
				"items": len(items),
			})
			return items, nil
		}
		url = base + next
	}
}
