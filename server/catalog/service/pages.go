package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"snd_media/server/catalog/domain"
	commonlog "snd_media/server/common/log"
)

const (
	DefaultSiteURL = "https://www.soundora-music.com"

	defaultMovieTitle = "Movie"
	pageContentType   = "text/html; charset=utf-8"
	keywordsSuffix    = "смотреть онлайн, SND, фильм, кино"
)

//go:embed templates/movie.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/movie.html.tmpl"))

// PageData is the fully defaulted view of one movie page.
type PageData struct {
	ID            string
	Slug          string
	Title         string
	Year          string
	OriginalTitle string
	Description   string
	Genre         string
	Poster        string
	Rating        string
	Votes         string
	PageURL       string
	Heading       string
	Keywords      string
	Schema        movieSchema
}

type movieSchema struct {
	Context         string          `json:"@context"`
	Type            string          `json:"@type"`
	Name            string          `json:"name"`
	AlternateName   string          `json:"alternateName,omitempty"`
	Image           string          `json:"image,omitempty"`
	Description     string          `json:"description"`
	DatePublished   string          `json:"datePublished,omitempty"`
	Genre           string          `json:"genre,omitempty"`
	URL             string          `json:"url"`
	AggregateRating aggregateRating `json:"aggregateRating"`
}

type aggregateRating struct {
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	BestRating  string `json:"bestRating"`
	RatingCount string `json:"ratingCount"`
}

// PageSlug picks the file slug for m: the record slug, then the id, then the title.
// Candidates that are not safe as a file name are slugified.
func PageSlug(m domain.Movie) string {
	for _, candidate := range []string{m.Slug, m.ID.String()} {
		c := strings.TrimSpace(candidate)
		if c == "" {
			continue
		}
		if isFileSafe(c) {
			return c
		}
		if s := Slugify(c); s != "" {
			return s
		}
	}
	return Slugify(m.Title)
}

func NewPageData(m domain.Movie, siteURL string) PageData {
	if siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/"); siteURL == "" {
		siteURL = DefaultSiteURL
	}
	d := PageData{
		ID:     m.ID.String(),
		Slug:   PageSlug(m),
		Title:  firstNonBlank(m.Title, defaultMovieTitle),
		Year:   strings.TrimSpace(m.Year.String()),
		Genre:  strings.TrimSpace(m.Genre.String()),
		Poster: strings.TrimSpace(m.Poster),
		Rating: ratingValue(m.Rating.String()),
		Votes:  firstNonBlank(m.SndVotes.String(), "0"),
	}
	d.OriginalTitle = firstNonBlank(m.OriginalTitle, d.Title)
	d.Description = firstNonBlank(m.Description, "Watch "+d.Title+" online")
	d.PageURL = siteURL + "/" + d.Slug + ".html"

	d.Heading = d.Title + " - SND"
	if d.Year != "" {
		d.Heading = d.Title + " (" + d.Year + ") - SND"
	}
	keywords := []string{d.Title, d.OriginalTitle}
	if d.Genre != "" {
		keywords = append(keywords, d.Genre)
	}
	d.Keywords = strings.Join(append(keywords, keywordsSuffix), ", ")

	d.Schema = movieSchema{
		Context:       "https://schema.org",
		Type:          "Movie",
		Name:          d.Title,
		AlternateName: d.OriginalTitle,
		Image:         d.Poster,
		Description:   d.Description,
		Genre:         d.Genre,
		URL:           d.PageURL,
		AggregateRating: aggregateRating{
			Type:        "AggregateRating",
			RatingValue: d.Rating,
			BestRating:  "10",
			RatingCount: d.Votes,
		},
	}
	if d.Year != "" {
		d.Schema.DatePublished = d.Year + "-01-01"
	}
	return d
}

// ratingValue keeps the numerator of ratings written as "7.5/10". Anything without a slash is "0".
func ratingValue(rating string) string {
	value, _, found := strings.Cut(strings.TrimSpace(rating), "/")
	if !found || strings.TrimSpace(value) == "" {
		return "0"
	}
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func RenderPage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}

type PagesReport struct {
	Written []string
	Skipped int
}

type PageGenerator struct {
	SiteURL string
	Sink    Sink
}

// Generate renders one page per movie into the sink. Records with no usable slug are skipped.
func (g PageGenerator) Generate(ctx context.Context, movies []domain.Movie) (PagesReport, error) {
	report := PagesReport{Written: make([]string, 0, len(movies))}
	seen := make(map[string]int, len(movies))
	var buf bytes.Buffer

	for i, m := range movies {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		data := NewPageData(m, g.SiteURL)
		if data.Slug == "" {
			commonlog.Warnf("skip catalog record #%d: no slug, id or title", i)
			report.Skipped++
			continue
		}
		name := data.Slug + ".html"
		if prev, dup := seen[name]; dup {
			commonlog.Warnf("catalog records #%d and #%d both map to %s; the later one wins", prev, i, name)
		}
		seen[name] = i

		buf.Reset()
		if err := RenderPage(&buf, data); err != nil {
			return report, fmt.Errorf("render %s: %w", name, err)
		}
		if err := g.Sink.Put(ctx, name, pageContentType, buf.Bytes()); err != nil {
			return report, fmt.Errorf("write %s: %w", name, err)
		}
		commonlog.Debugf("created %s", name)
		report.Written = append(report.Written, name)
	}
	return report, nil
}
