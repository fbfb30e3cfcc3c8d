package models

import (
	"strings"
	"time"
)

// Topic is a normalized tag used as the search term for one acquisition run.
type Topic struct {
	Tag         string
	TargetCount int
}

// NewTopic normalizes the raw tag (leading marker stripped, lower-cased)
// and pairs it with the per-topic target count.
func NewTopic(tag string, targetCount int) Topic {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "#")
	return Topic{
		Tag:         strings.ToLower(tag),
		TargetCount: targetCount,
	}
}

// Post is a single extracted record. Username and Content are the only
// required fields; everything else defaults to zero values.
type Post struct {
	Username  string    `json:"username"`
	Timestamp string    `json:"timestamp"`
	Content   string    `json:"content"`
	Replies   int       `json:"replies"`
	Retweets  int       `json:"retweets"`
	Likes     int       `json:"likes"`
	Mentions  []string  `json:"mentions"`
	Hashtags  []string  `json:"hashtags"`
	URLs      []string  `json:"urls"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Cookie mirrors the browser cookie fields the session file needs to
// round-trip a login.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

// StorageState is an opaque snapshot of the page's local storage, keyed
// by storage key. It is persisted alongside cookies and restored
// verbatim on the next run.
type StorageState map[string]string
