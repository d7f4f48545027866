// Package transform post-processes document content for tool responses:
// HTML rendering, word segmentation, keyword filtering and windowing.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/common"
)

const DefaultMaxLength = 50000

// Format selects how HTML content is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ContentOptions controls ProcessContent.
type ContentOptions struct {
	Format    Format
	BaseURL   string
	Keywords  []string
	Offset    int
	MaxLength int
}

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	whitespace    = regexp.MustCompile(`\s+`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

const blockSelectors = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article, header, footer"

// Service renders and trims document content.
type Service struct {
	segmenter *Segmenter
	logger    arbor.ILogger
}

// NewService creates a transform service using the embedded word list. A nil
// logger falls back to the global one.
func NewService(logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		segmenter: DefaultSegmenter(),
		logger:    logger,
	}
}

// ProcessContent renders HTML, then segments, filters and windows the result.
// Markdown output is not segmented so link targets survive.
func (s *Service) ProcessContent(html string, opts ContentOptions) string {
	if html == "" {
		return ""
	}

	var content string
	if opts.Format == FormatMarkdown {
		converted, err := s.HTMLToMarkdown(html, opts.BaseURL)
		if err != nil {
			converted = stripHTMLTags(html)
		}
		content = converted
	} else {
		content = s.Segment(s.HTMLToText(html))
	}

	content = FilterSentences(content, opts.Keywords)

	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return Window(content, opts.Offset, maxLength)
}

// HTMLToText extracts readable text, dropping scripts and styles and keeping
// block boundaries as spaces.
func (s *Service) HTMLToText(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse HTML, stripping tags")
		return stripHTMLTags(html)
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find(blockSelectors).Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})

	return strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " "))
}

// HTMLToMarkdown converts HTML content to markdown.
// baseURL is used for resolving relative links.
func (s *Service) HTMLToMarkdown(html string, baseURL string) (string, error) {
	if html == "" {
		return "", nil
	}

	converter := md.NewConverter(baseURL, true, nil)
	converted, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using fallback")
		return stripHTMLTags(html), nil
	}

	if strings.TrimSpace(converted) == "" {
		s.logger.Warn().
			Int("html_length", len(html)).
			Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(html), nil
	}

	return converted, nil
}

// Segment splits run-together words in text.
func (s *Service) Segment(text string) string {
	return s.segmenter.Segment(text)
}

// ValidateHTML checks if the input looks like HTML.
func (s *Service) ValidateHTML(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty content")
	}
	if !strings.Contains(trimmed, "<") {
		return fmt.Errorf("content does not appear to be HTML")
	}
	return nil
}

// FilterSentences keeps the sentences that contain any keyword, ignoring case,
// joined by ". ". No keywords returns content unchanged.
func FilterSentences(content string, keywords []string) string {
	active := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			active = append(active, strings.ToLower(k))
		}
	}
	if len(active) == 0 {
		return content
	}

	var kept []string
	for _, sentence := range sentenceBreak.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		lower := strings.ToLower(sentence)
		for _, k := range active {
			if strings.Contains(lower, k) {
				kept = append(kept, sentence)
				break
			}
		}
	}
	return strings.Join(kept, ". ")
}

// Window returns at most maxLength characters starting at offset, counted in
// runes. An offset past the end yields "".
func Window(content string, offset, maxLength int) string {
	if offset < 0 {
		offset = 0
	}
	runes := []rune(content)
	if offset >= len(runes) {
		return ""
	}
	end := len(runes)
	if maxLength > 0 && offset+maxLength < end {
		end = offset + maxLength
	}
	return string(runes[offset:end])
}

// stripHTMLTags removes tags and decodes a basic entity set.
func stripHTMLTags(htmlStr string) string {
	stripped := tagPattern.ReplaceAllString(htmlStr, " ")
	cleaned := whitespace.ReplaceAllString(stripped, " ")

	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
