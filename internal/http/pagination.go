package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// nextPageLink extracts the rel="next" target from a Link header, or "" when
// the last page has been reached.
func nextPageLink(headers map[string][]string, header string) string {
	for _, value := range headers[header] {
		for _, part := range strings.Split(value, ",") {
			segments := strings.Split(part, ";")
			if len(segments) < 2 {
				continue
			}

			target := strings.Trim(strings.TrimSpace(segments[0]), "<>")

			for _, param := range segments[1:] {
				key, val, found := strings.Cut(strings.TrimSpace(param), "=")
				if found && key == "rel" && strings.Trim(val, `"`) == "next" {
					return target
				}
			}
		}
	}

	return ""
}

// GetAllPages walks a paginated listing endpoint, following Link rel="next"
// headers until they run out or maxItems elements have been collected (zero
// means unlimited). Next links are resolved against the host of the first
// request, so a server behind a proxy advertising its internal address still
// gets queried through the configured one.
func GetAllPages(ctx context.Context, client *Client, path string, query url.Values, maxItems int) ([]json.RawMessage, error) {
	var items []json.RawMessage

	currentPath := path
	currentQuery := query

	for {
		resp, err := client.Get(ctx, currentPath, currentQuery)
		if err != nil {
			return nil, fmt.Errorf("fetching page %s: %w", currentPath, err)
		}

		var page []json.RawMessage

		err = json.Unmarshal(resp.Body, &page)
		if err != nil {
			return nil, fmt.Errorf("decoding page %s: %w", currentPath, err)
		}

		items = append(items, page...)

		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		next := nextPageLink(resp.Headers, "Link")
		if next == "" {
			return items, nil
		}

		currentPath, err = stripHost(next)
		if err != nil {
			return nil, err
		}

		currentQuery = nil
	}
}

// stripHost reduces an absolute next-link to path plus query.
func stripHost(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing next link %q: %w", link, err)
	}

	path := parsed.Path
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}

	return path, nil
}
