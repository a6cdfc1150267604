package summary

import (
	"fmt"
	"strings"

	"github.com/stashspark/stashspark/internal/domain"
)

// richness describes how much summary a bookmark deserves, derived
// from the amount of material available to summarize.
type richness struct {
	wordRange string
	maxTokens int
}

// estimateRichness weighs the bookmark's text. Notes count double
// since they already condense the page; the URL counts for little.
func estimateRichness(b domain.Bookmark) richness {
	length := float64(len(b.Title))
	if strings.TrimSpace(b.Notes) != "" {
		length += float64(len(b.Notes)) * 2
	}
	length += float64(len(b.URL)) * 0.3

	switch {
	case length < 100:
		return richness{wordRange: "30-50", maxTokens: 100}
	case length < 300:
		return richness{wordRange: "50-80", maxTokens: 150}
	case length < 600:
		return richness{wordRange: "80-120", maxTokens: 250}
	default:
		return richness{wordRange: "120-180", maxTokens: 350}
	}
}

const systemPrompt = `You are a professional content summarization assistant. Generate summaries that match the content's richness:
- For brief content: Provide a SHORT, direct summary without padding or filler words
- For moderate content: Give a balanced overview of key points
- For rich content: Offer comprehensive coverage with detailed insights

Always be concise and informative. Avoid generic phrases. Focus on actual content value.`

// buildPrompt renders the user message for one bookmark and picks the
// token budget matching its richness.
func buildPrompt(b domain.Bookmark) (string, richness) {
	var sb strings.Builder
	sb.WriteString("Please generate a concise summary for the following webpage:\n\n")

	if b.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", b.Title)
	}
	fmt.Fprintf(&sb, "URL: %s\n", b.URL)
	if b.Domain != "" {
		fmt.Fprintf(&sb, "Domain: %s\n", b.Domain)
	}
	if strings.TrimSpace(b.Notes) != "" {
		fmt.Fprintf(&sb, "\nUser Notes: %s\n", b.Notes)
	}

	r := estimateRichness(b)
	fmt.Fprintf(&sb, "\nPlease provide a %s word summary in English that includes:\n", r.wordRange)
	sb.WriteString("1. Main content of the webpage\n")
	sb.WriteString("2. Key information or highlights\n")
	sb.WriteString("3. Target audience or use cases (if applicable)\n\n")
	sb.WriteString("Important: Adjust the detail level based on available information. If content is brief, keep summary concise and avoid filler words. If content is rich, provide comprehensive coverage.")

	return sb.String(), r
}
