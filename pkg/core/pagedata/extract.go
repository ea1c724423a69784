// Package pagedata derives structural page facts from supplied HTML.
// It never fetches anything.
package pagedata

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

// Extract counts words, headings, images and links in html.
// pageURL decides which links are internal; it may be empty.
func Extract(html, pageURL string) (domain.PageData, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.PageData{}, "", fmt.Errorf("parse html: %w", err)
	}

	var pd domain.PageData
	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	pd.WordCount = len(strings.Fields(text))

	pd.HeadingCount = doc.Find("h1, h2, h3, h4, h5, h6").Length()
	pd.H1Count = doc.Find("h1").Length()

	images := doc.Find("img")
	pd.ImageCount = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			pd.ImagesMissingAlt++
		}
	})

	host := hostOf(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch classify(href, host) {
		case linkInternal:
			pd.InternalLinks++
		case linkExternal:
			pd.ExternalLinks++
		}
	})

	return pd, text, nil
}

// Title returns the document title, or the first h1 when there is none
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

type linkKind int

const (
	linkIgnored linkKind = iota
	linkInternal
	linkExternal
)

func classify(href, host string) linkKind {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return linkIgnored
	}
	u, err := url.Parse(href)
	if err != nil {
		return linkIgnored
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		// mailto:, tel:, javascript:
		return linkIgnored
	}
	if u.Host == "" || (host != "" && strings.EqualFold(strings.TrimPrefix(u.Host, "www."), host)) {
		return linkInternal
	}
	return linkExternal
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
