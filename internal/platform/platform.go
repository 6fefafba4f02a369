// Package platform labels a post URL with the social network it came from.
package platform

import (
	"strings"

	"github.com/sells-group/postmetrics/internal/textnorm"
)

// Platform labels.
const (
	Instagram = "Instagram"
	TikTok    = "Tiktok"
	XTwitter  = "X/Twitter"
	YouTube   = "YouTube"
	Facebook  = "Facebook"
	Unknown   = textnorm.Placeholder
)

type rule struct {
	label   string
	needles []string
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{Instagram, []string{"instagram.com"}},
	{TikTok, []string{"tiktok.com"}},
	{XTwitter, []string{"x.com", "twitter.com"}},
	{YouTube, []string{"youtube.com", "youtu.be"}},
	{Facebook, []string{"facebook.com"}},
}

// FromURL returns the platform label for url, or Unknown.
func FromURL(url string) string {
	u := strings.ToLower(url)
	if u == "" {
		return Unknown
	}
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(u, n) {
				return r.label
			}
		}
	}
	return Unknown
}

// Labels lists the known platform labels in match order.
func Labels() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.label
	}
	return out
}
