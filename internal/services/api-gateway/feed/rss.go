// Package feed renders the version history as an RSS 2.0 document.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/version"
)

const (
	DefaultLimit = 20
	ContentType  = "application/rss+xml; charset=utf-8"
)

type Lister interface {
	List(ctx context.Context, limit, offset int) ([]*version.Version, error)
}

type Config struct {
	SiteURL     string
	Title       string
	Description string
	Product     string
	Limit       int
}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language"`
	LastBuildDate string   `xml:"lastBuildDate"`
	AtomLink      atomLink `xml:"atom:link"`
	Items         []item   `xml:"item"`
}

type guid struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        guid   `xml:"guid"`
}

type Handler struct {
	versions Lister
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(versions Lister, cfg Config, log *zap.Logger) *Handler {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Product == "" {
		cfg.Product = "Cursor"
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Handler{
		versions: versions,
		cfg:      cfg,
		log:      log.With(zap.String("component", "api.feed")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ServeHTTP always answers 200 with a well-formed document; a storage
// failure yields a channel with a single error item.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := h.build(r.Context())
	if err != nil {
		h.log.Error("build feed", zap.Error(err))
		doc = h.errorDoc()
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		h.log.Error("marshal feed", zap.Error(err))
		out, _ = xml.Marshal(h.errorDoc())
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func (h *Handler) base() rss {
	return rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: channel{
			Title:         h.cfg.Title,
			Link:          h.cfg.SiteURL,
			Description:   h.cfg.Description,
			Language:      "en-us",
			LastBuildDate: h.now().Format(time.RFC1123Z),
			AtomLink: atomLink{
				Href: h.cfg.SiteURL + "/api/versions/rss",
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}
}

func (h *Handler) build(ctx context.Context) (rss, error) {
	list, err := h.versions.List(ctx, h.cfg.Limit, 0)
	if err != nil {
		return rss{}, err
	}
	doc := h.base()
	doc.Channel.Items = make([]item, 0, len(list))
	for _, v := range list {
		doc.Channel.Items = append(doc.Channel.Items, item{
			Title:       fmt.Sprintf("%s %s", h.cfg.Product, v.Version),
			Link:        fmt.Sprintf("%s/changelog#%s", h.cfg.SiteURL, v.Version),
			Description: fmt.Sprintf("%s version %s was released.", h.cfg.Product, v.Version),
			PubDate:     v.DetectedAt.UTC().Format(time.RFC1123Z),
			GUID:        guid{Value: strings.ToLower(h.cfg.Product) + "-" + v.Version},
		})
	}
	return doc, nil
}

func (h *Handler) errorDoc() rss {
	doc := h.base()
	doc.Channel.Items = []item{{
		Title:       "Error generating feed",
		Link:        h.cfg.SiteURL,
		Description: "The version feed is temporarily unavailable.",
		PubDate:     h.now().Format(time.RFC1123Z),
		GUID:        guid{Value: "feed-error"},
	}}
	return doc
}
