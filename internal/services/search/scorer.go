package search

import (
	"sort"

	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

// Field names a searchable highlight or book attribute.
type Field string

const (
	FieldDocumentTitle  Field = "document_title"
	FieldDocumentAuthor Field = "document_author"
	FieldHighlightText  Field = "highlight_text"
	FieldHighlightNote  Field = "highlight_note"
	FieldHighlightTags  Field = "highlight_tags"
)

// Fields lists every field a FieldQuery may target.
var Fields = []Field{
	FieldDocumentTitle,
	FieldDocumentAuthor,
	FieldHighlightText,
	FieldHighlightNote,
	FieldHighlightTags,
}

// Weights for a free-text query.
const (
	TextWeightHighlight = 10
	TextWeightNote      = 8
	TextWeightTitle     = 6
	TextWeightAuthor    = 4
)

// Weights for field-specific queries.
const (
	FieldWeightTitle     = 8
	FieldWeightAuthor    = 8
	FieldWeightHighlight = 10
	FieldWeightNote      = 8
	FieldWeightTag       = 6
)

// FieldQuery restricts a search term to one field.
type FieldQuery struct {
	Field      Field  `json:"field" validate:"required,oneof=document_title document_author highlight_text highlight_note highlight_tags"`
	SearchTerm string `json:"searchTerm" validate:"required"`
}

// HighlightQuery describes a scored highlight search. With neither TextQuery
// nor FieldQueries every score stays zero and the result is empty.
type HighlightQuery struct {
	TextQuery    string
	FieldQueries []FieldQuery
	BookID       int
	Limit        int
}

// IsEmpty reports whether the query carries no criteria.
func (q HighlightQuery) IsEmpty() bool {
	return q.TextQuery == "" && len(q.FieldQueries) == 0
}

// Result is one scored highlight. Book never carries highlights.
type Result struct {
	Highlight     readwise.Highlight `json:"highlight"`
	Book          readwise.Book      `json:"book"`
	Score         int                `json:"score"`
	MatchedFields []Field            `json:"matched_fields"`
}

// ScoreHighlights scores every highlight of books against q, drops zero scores,
// orders by score descending (ties keep input order) and applies q.Limit.
func ScoreHighlights(books []readwise.Book, q HighlightQuery) []Result {
	results := []Result{}

	for _, book := range books {
		if q.BookID != 0 && book.ID != q.BookID {
			continue
		}

		var bare *readwise.Book
		for _, h := range book.Highlights {
			score, fields := scoreHighlight(h, book, q)
			if score == 0 {
				continue
			}
			if bare == nil {
				b := book.WithoutHighlights()
				bare = &b
			}
			results = append(results, Result{
				Highlight:     h,
				Book:          *bare,
				Score:         score,
				MatchedFields: fields,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

func scoreHighlight(h readwise.Highlight, book readwise.Book, q HighlightQuery) (int, []Field) {
	score := 0
	var matched fieldSet

	if q.TextQuery != "" {
		if containsFold(h.Text, q.TextQuery) {
			score += TextWeightHighlight
			matched.add(FieldHighlightText)
		}
		if h.Note != "" && containsFold(h.Note, q.TextQuery) {
			score += TextWeightNote
			matched.add(FieldHighlightNote)
		}
		if containsFold(book.Title, q.TextQuery) {
			score += TextWeightTitle
			matched.add(FieldDocumentTitle)
		}
		if containsFold(book.Author, q.TextQuery) {
			score += TextWeightAuthor
			matched.add(FieldDocumentAuthor)
		}
	}

	for _, fq := range q.FieldQueries {
		switch fq.Field {
		case FieldDocumentTitle:
			if containsFold(book.Title, fq.SearchTerm) {
				score += FieldWeightTitle
				matched.add(fq.Field)
			}
		case FieldDocumentAuthor:
			if containsFold(book.Author, fq.SearchTerm) {
				score += FieldWeightAuthor
				matched.add(fq.Field)
			}
		case FieldHighlightText:
			if containsFold(h.Text, fq.SearchTerm) {
				score += FieldWeightHighlight
				matched.add(fq.Field)
			}
		case FieldHighlightNote:
			if h.Note != "" && containsFold(h.Note, fq.SearchTerm) {
				score += FieldWeightNote
				matched.add(fq.Field)
			}
		case FieldHighlightTags:
			for _, tag := range h.Tags {
				if containsFold(tag.Name, fq.SearchTerm) {
					score += FieldWeightTag
					matched.add(fq.Field)
					break
				}
			}
		}
	}

	return score, matched.fields
}

// fieldSet keeps first-seen order without duplicates.
type fieldSet struct {
	fields []Field
}

func (s *fieldSet) add(f Field) {
	for _, existing := range s.fields {
		if existing == f {
			return
		}
	}
	s.fields = append(s.fields, f)
}
