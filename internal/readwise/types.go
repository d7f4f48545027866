// Package readwise provides a client for the Readwise Reader (v3) and Highlights (v2) APIs.
package readwise

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
)

// Location is where a document lives in Reader.
type Location string

const (
	LocationNew       Location = "new"
	LocationLater     Location = "later"
	LocationShortlist Location = "shortlist"
	LocationArchive   Location = "archive"
	LocationFeed      Location = "feed"
)

// DocumentCategory is the Reader document type.
type DocumentCategory string

const (
	CategoryArticle DocumentCategory = "article"
	CategoryBook    DocumentCategory = "book"
	CategoryTweet   DocumentCategory = "tweet"
	CategoryPDF     DocumentCategory = "pdf"
	CategoryEmail   DocumentCategory = "email"
	CategoryYouTube DocumentCategory = "youtube"
	CategoryPodcast DocumentCategory = "podcast"
	CategoryVideo   DocumentCategory = "video"
)

// BookCategory is the Highlights API source type.
type BookCategory string

const (
	BookCategoryBooks         BookCategory = "books"
	BookCategoryArticles      BookCategory = "articles"
	BookCategoryTweets        BookCategory = "tweets"
	BookCategoryPodcasts      BookCategory = "podcasts"
	BookCategorySupplementals BookCategory = "supplementals"
)

// LocationType describes how a highlight's location is measured.
type LocationType string

const (
	LocationTypePage       LocationType = "page"
	LocationTypeOrder      LocationType = "order"
	LocationTypeTimeOffset LocationType = "time_offset"
)

// Tag is a Reader document tag (key/name) or a highlight tag (id/name).
type Tag struct {
	ID   int    `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
}

// DocumentTags holds document tags as returned by Reader, which is either an
// object keyed by tag key or a plain list of names. The raw payload is kept so
// documents pass through unchanged.
type DocumentTags struct {
	raw   json.RawMessage
	names []string
}

// NewDocumentTags builds tags from plain names.
func NewDocumentTags(names ...string) DocumentTags {
	raw, _ := json.Marshal(names)
	return DocumentTags{raw: raw, names: names}
}

// Names returns tag names in a stable order.
func (t DocumentTags) Names() []string {
	return t.names
}

func (t *DocumentTags) UnmarshalJSON(data []byte) error {
	t.raw = append(t.raw[:0], data...)
	t.names = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		t.names = list
	case '{':
		var byKey map[string]Tag
		if err := json.Unmarshal(trimmed, &byKey); err != nil {
			return err
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := byKey[k].Name
			if name == "" {
				name = k
			}
			t.names = append(t.names, name)
		}
	}
	return nil
}

func (t DocumentTags) MarshalJSON() ([]byte, error) {
	if len(t.raw) == 0 {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// Document is a saved Reader item.
type Document struct {
	ID              string           `json:"id"`
	URL             string           `json:"url"`
	SourceURL       string           `json:"source_url,omitempty"`
	Title           string           `json:"title,omitempty"`
	Author          string           `json:"author,omitempty"`
	Source          string           `json:"source,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	PublishedDate   any              `json:"published_date,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	Location        Location         `json:"location,omitempty"`
	Category        DocumentCategory `json:"category,omitempty"`
	Tags            DocumentTags     `json:"tags"`
	SiteName        string           `json:"site_name,omitempty"`
	WordCount       int              `json:"word_count,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
	UpdatedAt       string           `json:"updated_at,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	ParentID        string           `json:"parent_id,omitempty"`
	ReadingProgress float64          `json:"reading_progress,omitempty"`
	FirstOpenedAt   string           `json:"first_opened_at,omitempty"`
	LastOpenedAt    string           `json:"last_opened_at,omitempty"`
	SavedAt         string           `json:"saved_at,omitempty"`
	LastMovedAt     string           `json:"last_moved_at,omitempty"`
	HTMLContent     string           `json:"html_content,omitempty"`
	Content         string           `json:"content,omitempty"`
}

// DocumentList is one page of /list/.
type DocumentList struct {
	Count          int        `json:"count"`
	NextPageCursor string     `json:"nextPageCursor,omitempty"`
	Results        []Document `json:"results"`
}

// DocumentRef is returned by save and update.
type DocumentRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SaveDocumentRequest is the body of POST /save/.
type SaveDocumentRequest struct {
	URL      string           `json:"url"`
	HTML     string           `json:"html,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
	Location Location         `json:"location,omitempty"`
	Category DocumentCategory `json:"category,omitempty"`
}

// DocumentUpdate is the body of PATCH /update/{id}/. Empty fields are not sent.
type DocumentUpdate struct {
	Title         string           `json:"title,omitempty"`
	Author        string           `json:"author,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	PublishedDate string           `json:"published_date,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	Location      Location         `json:"location,omitempty"`
	Category      DocumentCategory `json:"category,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u DocumentUpdate) IsEmpty() bool {
	return u == DocumentUpdate{}
}

// ListDocumentsParams filters /list/. Limit is applied client-side.
type ListDocumentsParams struct {
	ID              string
	UpdatedAfter    string
	AddedAfter      string
	Location        Location
	Category        DocumentCategory
	Tag             string
	PageCursor      string
	WithHTMLContent bool
	WithFullContent bool
	Limit           int
}

// Values encodes the server-side filters. Content flags are only sent when
// includeContent is set, which lets the count probe reuse the same filters.
func (p ListDocumentsParams) Values(includeContent bool) url.Values {
	v := url.Values{}
	setIf(v, "id", p.ID)
	setIf(v, "updatedAfter", p.UpdatedAfter)
	setIf(v, "addedAfter", p.AddedAfter)
	setIf(v, "location", string(p.Location))
	setIf(v, "category", string(p.Category))
	setIf(v, "tag", p.Tag)
	setIf(v, "pageCursor", p.PageCursor)
	if includeContent {
		v.Set("withHtmlContent", strconv.FormatBool(p.WithHTMLContent))
		v.Set("withFullContent", strconv.FormatBool(p.WithFullContent))
	}
	return v
}

// Highlight is a captured excerpt owned by exactly one book.
type Highlight struct {
	ID            int          `json:"id"`
	Text          string       `json:"text"`
	Note          string       `json:"note,omitempty"`
	Location      int          `json:"location,omitempty"`
	LocationType  LocationType `json:"location_type,omitempty"`
	HighlightedAt string       `json:"highlighted_at,omitempty"`
	URL           string       `json:"url,omitempty"`
	Color         string       `json:"color,omitempty"`
	Updated       string       `json:"updated,omitempty"`
	BookID        int          `json:"book_id"`
	Tags          []Tag        `json:"tags"`
}

// HighlightList is one page of /highlights/.
type HighlightList struct {
	Count    int         `json:"count"`
	Next     string      `json:"next,omitempty"`
	Previous string      `json:"previous,omitempty"`
	Results  []Highlight `json:"results"`
}

// ListHighlightsParams filters /highlights/.
type ListHighlightsParams struct {
	PageSize        int
	Page            int
	BookID          int
	UpdatedLT       string
	UpdatedGT       string
	HighlightedAtLT string
	HighlightedAtGT string
}

// Values encodes the filters.
func (p ListHighlightsParams) Values() url.Values {
	v := url.Values{}
	setIntIf(v, "page_size", p.PageSize)
	setIntIf(v, "page", p.Page)
	setIntIf(v, "book_id", p.BookID)
	setIf(v, "updated__lt", p.UpdatedLT)
	setIf(v, "updated__gt", p.UpdatedGT)
	setIf(v, "highlighted_at__lt", p.HighlightedAtLT)
	setIf(v, "highlighted_at__gt", p.HighlightedAtGT)
	return v
}

// HighlightInput is one entry of POST /highlights/.
type HighlightInput struct {
	Text          string       `json:"text" validate:"required"`
	Title         string       `json:"title,omitempty"`
	Author        string       `json:"author,omitempty"`
	ImageURL      string       `json:"image_url,omitempty"`
	SourceURL     string       `json:"source_url,omitempty"`
	SourceType    string       `json:"source_type,omitempty"`
	Category      BookCategory `json:"category,omitempty"`
	Note          string       `json:"note,omitempty"`
	Location      int          `json:"location,omitempty"`
	LocationType  LocationType `json:"location_type,omitempty"`
	HighlightedAt string       `json:"highlighted_at,omitempty"`
	HighlightURL  string       `json:"highlight_url,omitempty"`
}

// CreatedBook is one entry of the POST /highlights/ response.
type CreatedBook struct {
	ID                 int          `json:"id"`
	Title              string       `json:"title"`
	Author             string       `json:"author"`
	Category           BookCategory `json:"category"`
	Source             string       `json:"source"`
	NumHighlights      int          `json:"num_highlights"`
	ModifiedHighlights []int        `json:"modified_highlights"`
}

// Book groups highlights under shared title/author metadata.
type Book struct {
	ID              int          `json:"id"`
	UserBookID      int          `json:"user_book_id,omitempty"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	ReadableTitle   string       `json:"readable_title,omitempty"`
	Source          string       `json:"source,omitempty"`
	CoverImageURL   string       `json:"cover_image_url,omitempty"`
	UniqueURL       string       `json:"unique_url,omitempty"`
	BookTags        []Tag        `json:"book_tags,omitempty"`
	Category        BookCategory `json:"category,omitempty"`
	DocumentNote    string       `json:"document_note,omitempty"`
	Summary         string       `json:"summary,omitempty"`
	ReadwiseURL     string       `json:"readwise_url,omitempty"`
	SourceURL       string       `json:"source_url,omitempty"`
	ASIN            string       `json:"asin,omitempty"`
	NumHighlights   int          `json:"num_highlights"`
	LastHighlightAt string       `json:"last_highlight_at,omitempty"`
	Updated         string       `json:"updated,omitempty"`
	Highlights      []Highlight  `json:"highlights,omitempty"`
}

// WithoutHighlights returns a copy of b with its highlight list dropped.
func (b Book) WithoutHighlights() Book {
	b.Highlights = nil
	return b
}

// BookList is one page of /books/.
type BookList struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []Book `json:"results"`
}

// ListBooksParams filters /books/.
type ListBooksParams struct {
	PageSize          int
	Page              int
	Category          BookCategory
	Source            string
	Title             string
	UpdatedLT         string
	UpdatedGT         string
	LastHighlightAtLT string
	LastHighlightAtGT string
}

// Values encodes the filters.
func (p ListBooksParams) Values() url.Values {
	v := url.Values{}
	setIntIf(v, "page_size", p.PageSize)
	setIntIf(v, "page", p.Page)
	setIf(v, "category", string(p.Category))
	setIf(v, "source", p.Source)
	setIf(v, "title", p.Title)
	setIf(v, "updated__lt", p.UpdatedLT)
	setIf(v, "updated__gt", p.UpdatedGT)
	setIf(v, "last_highlight_at__lt", p.LastHighlightAtLT)
	setIf(v, "last_highlight_at__gt", p.LastHighlightAtGT)
	return v
}

// ExportParams filters /export/.
type ExportParams struct {
	UpdatedAfter   string
	IDs            string
	IncludeDeleted bool
	PageCursor     string
}

// Values encodes the filters.
func (p ExportParams) Values() url.Values {
	v := url.Values{}
	setIf(v, "updatedAfter", p.UpdatedAfter)
	setIf(v, "ids", p.IDs)
	if p.IncludeDeleted {
		v.Set("includeDeleted", "true")
	}
	setIf(v, "pageCursor", p.PageCursor)
	return v
}

// ExportResponse is the /export/ payload: books each embedding their highlights.
type ExportResponse struct {
	Count          int    `json:"count"`
	NextPageCursor string `json:"nextPageCursor,omitempty"`
	Results        []Book `json:"results"`
}

// ReviewHighlight is a highlight as presented by the daily review.
type ReviewHighlight struct {
	ID            int    `json:"id"`
	Text          string `json:"text"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	URL           string `json:"url,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	SourceType    string `json:"source_type,omitempty"`
	Category      string `json:"category,omitempty"`
	LocationType  string `json:"location_type,omitempty"`
	Location      int    `json:"location,omitempty"`
	Note          string `json:"note,omitempty"`
	HighlightedAt string `json:"highlighted_at,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}

// DailyReview is the /review/ payload.
type DailyReview struct {
	ReviewID        int               `json:"review_id"`
	ReviewURL       string            `json:"review_url"`
	ReviewCompleted bool              `json:"review_completed"`
	Highlights      []ReviewHighlight `json:"highlights"`
}

// TagList is the /tags/ payload.
type TagList struct {
	Count          int    `json:"count"`
	NextPageCursor string `json:"nextPageCursor,omitempty"`
	Results        []Tag  `json:"results"`
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setIntIf(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}
