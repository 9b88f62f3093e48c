package service

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"snd_media/server/catalog/domain"
	commonlog "snd_media/server/common/log"
)

const (
	SitemapNamespace  = "http://www.sitemaps.org/schemas/sitemap/0.9"
	DefaultSitemapURL = DefaultSiteURL

	sitemapChangeFreq  = "weekly"
	sitemapPriority    = "0.7"
	sitemapContentType = "application/xml; charset=utf-8"
	lastModLayout      = "2006-01-02"
)

type SitemapOptions struct {
	Domain      string
	BasePath    string
	HashRouting bool
	// Now stamps every lastmod; zero means the current time.
	Now time.Time
}

type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// SitemapLoc returns the absolute URL for m, or "" when it has neither a sluggable title nor an id.
func SitemapLoc(m domain.Movie, opts SitemapOptions) string {
	slug := Slugify(m.Title)
	if slug == "" {
		slug = strings.TrimSpace(m.ID.String())
	}
	if slug == "" {
		return ""
	}

	domainURL := strings.TrimRight(strings.TrimSpace(opts.Domain), "/")
	if domainURL == "" {
		domainURL = DefaultSitemapURL
	}
	sep := "/"
	if opts.HashRouting {
		sep = "/#"
	}
	return domainURL + strings.TrimRight(strings.TrimSpace(opts.BasePath), "/") + sep + url.PathEscape(slug)
}

func BuildSitemap(movies []domain.Movie, opts SitemapOptions) URLSet {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	lastMod := now.UTC().Format(lastModLayout)

	set := URLSet{Xmlns: SitemapNamespace, URLs: make([]SitemapURL, 0, len(movies))}
	for i, m := range movies {
		loc := SitemapLoc(m, opts)
		if loc == "" {
			commonlog.Warnf("skip catalog record #%d in sitemap: no title or id", i)
			continue
		}
		set.URLs = append(set.URLs, SitemapURL{
			Loc:        loc,
			LastMod:    lastMod,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		})
	}
	return set
}

func WriteSitemap(w io.Writer, set URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
