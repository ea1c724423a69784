// Package prompts builds the text sent to the generator. The JSON shapes
// embedded here are the ones scoring.ParseAnalysis and
// linking.ParseCandidates accept.
package prompts

import (
	"fmt"
	"strings"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

// MaxContentChars bounds how much page text is embedded in a prompt
const MaxContentChars = 12000

const auditShape = `{
  "overallScore": <0-100>,
  "eeat": {"score": <0-100>, "issues": [string], "strengths": [string]},
  "technical": {"score": <0-100>, "issues": [string], "strengths": [string]},
  "contentQuality": {"score": <0-100>, "issues": [string], "strengths": [string]},
  "summary": string,
  "recommendations": [string]
}`

const linkShape = `{"opportunities": [{"targetPage": string, "targetUrl": string, "anchorText": string, "context": string, "relevanceScore": <0-100>}]}`

// Audit asks for an E-E-A-T, technical and content quality assessment
func Audit(url, title, content string, pd domain.PageData, serp *domain.SerpData) string {
	var b strings.Builder
	b.WriteString("You are an SEO auditor. Assess the page below for Experience, Expertise, ")
	b.WriteString("Authoritativeness and Trustworthiness, technical SEO and content quality.\n\n")
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n", url, title)
	fmt.Fprintf(&b, "Words: %d, headings: %d (h1: %d), images: %d (missing alt: %d), internal links: %d, external links: %d\n",
		pd.WordCount, pd.HeadingCount, pd.H1Count, pd.ImageCount, pd.ImagesMissingAlt, pd.InternalLinks, pd.ExternalLinks)
	if serp != nil && serp.Keyword != "" {
		fmt.Fprintf(&b, "Target keyword: %s (current position %d)\n", serp.Keyword, serp.Position)
	}
	b.WriteString("\nContent:\n")
	b.WriteString(truncate(content))
	b.WriteString("\n\nRespond with a single JSON object and nothing else, shaped as:\n")
	b.WriteString(auditShape)
	return b.String()
}

// Target is a page that may receive an internal link
type Target struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// LinkOpportunities asks for internal-link placements into content
func LinkOpportunities(content string, targets []Target) string {
	var b strings.Builder
	b.WriteString("Suggest internal links for the article below. For each suggestion quote the exact ")
	b.WriteString("sentence from the article where the link belongs as \"context\", pick anchor text from ")
	b.WriteString("that sentence and rate relevance from 0 to 100.\n\nCandidate pages:\n")
	for _, t := range targets {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Title, t.URL)
	}
	b.WriteString("\nArticle:\n")
	b.WriteString(truncate(content))
	b.WriteString("\n\nRespond with JSON only, shaped as:\n")
	b.WriteString(linkShape)
	return b.String()
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxContentChars {
		return s
	}
	return string(r[:MaxContentChars])
}
