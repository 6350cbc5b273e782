// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch searches arXiv and downloads paper PDFs, abstracts, and
// LaTeX source archives for the conversion pipeline.
package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/papertex/internal/httputil"
	"github.com/pdiddy/papertex/pkg/types"
)

// Endpoints, declared as vars so tests can substitute an httptest server.
var (
	arxivAPIBase    = "https://export.arxiv.org/api/query"
	arxivEprintBase = "https://arxiv.org/e-print/"
)

// DefaultMaxResults is used when the configuration leaves max_results unset.
const DefaultMaxResults = 30

// sortParams maps configured sort names to arXiv API sortBy values.
var sortParams = map[types.SortBy]string{
	types.SortRelevance:       "relevance",
	types.SortLastUpdatedDate: "lastUpdatedDate",
	types.SortSubmittedDate:   "submittedDate",
}

// BuildQuery combines a free-text topic with an optional category
// restriction ("cat:cs.CL AND transformers").
func BuildQuery(topic, category string) string {
	topic = strings.TrimSpace(topic)
	if category == "" {
		return topic
	}
	return fmt.Sprintf("cat:%s AND %s", category, topic)
}

// Client queries the arXiv API.
type Client struct {
	HTTP   *http.Client
	Config types.HTTPConfig
}

// Search runs query against the arXiv API and returns up to maxResults
// entries ordered by sortBy, newest or most relevant first.
func (c *Client) Search(ctx context.Context, query string, sortBy types.SortBy, maxResults int) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	sortParam, ok := sortParams[sortBy]
	if !ok {
		sortParam = sortParams[types.SortRelevance]
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", sortParam)
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		shortID := extractShortID(entry.ID)
		if shortID == "" {
			continue
		}
		r := types.SearchResult{
			ShortID: shortID,
			Title:   collapseSpace(entry.Title),
			Summary: strings.TrimSpace(entry.Summary),
			AbsURL:  strings.TrimSpace(entry.ID),
		}
		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}
		for _, l := range entry.Links {
			if l.Title == "pdf" {
				r.PDFURL = l.Href
			}
		}
		if entry.Primary.Term != "" {
			r.Categories = append(r.Categories, entry.Primary.Term)
		}
		for _, cat := range entry.Categories {
			if cat.Term != entry.Primary.Term {
				r.Categories = append(r.Categories, cat.Term)
			}
		}
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			r.Published = t
		}
		if t, err := time.Parse(time.RFC3339, entry.Updated); err == nil {
			r.Updated = t
		}
		results = append(results, r)
	}
	return results, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Updated    string          `xml:"updated"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Primary    arxivCategory   `xml:"primary_category"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Rel   string `xml:"rel,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractShortID returns the identifier after "/abs/" in an entry ID URL,
// keeping the version ("http://arxiv.org/abs/2301.07041v2" gives
// "2301.07041v2").
func extractShortID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(idURL[idx+len(prefix):])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
