package effector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Search opens the default browser on a search results page. The browser
// itself is an opaque collaborator; launching it is the whole contract.
func (d *Desktop) Search(query string) error {
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := exec.Command("xdg-open", target).Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// Scrape fetches a page and reports its title and primary heading.
func (d *Desktop) Scrape(ctx context.Context, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	title := firstText(doc, "title")
	if title == "" {
		title = "No Title Found"
	}
	report := fmt.Sprintf("Report Title: %s", title)
	if heading := firstText(doc, "h1"); heading != "" {
		report += fmt.Sprintf(" Primary Topic: %s", heading)
	}
	return report, nil
}

// firstText walks the tree for the first element with the given tag and
// returns its concatenated text content.
func firstText(n *html.Node, tag string) string {
	if n.Type == html.ElementNode && n.Data == tag {
		var sb strings.Builder
		collectText(n, &sb)
		return strings.TrimSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if got := firstText(c, tag); got != "" {
			return got
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
