package services

import (
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"gorm.io/datatypes"
)

// PlainTextExcerpt strips markup from body and returns at most limit runes
// of its visible text
func PlainTextExcerpt(body string, limit int) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	var words []string
	skip := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return ""
			}
			return truncateRunes(strings.Join(words, " "), limit)
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); isHiddenTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				words = append(words, strings.Fields(string(tokenizer.Text()))...)
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= 3 {
		return string(runes[:limit])
	}
	cut := strings.TrimSpace(string(runes[:limit-3]))
	return cut + "..."
}

// VideoMetadata recognises the hosting provider of a video URL
func VideoMetadata(rawURL string) datatypes.JSONMap {
	meta := datatypes.JSONMap{"provider": "other"}

	u, err := url.Parse(rawURL)
	if err != nil {
		return meta
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "youtube.com", "m.youtube.com":
		meta["provider"] = "youtube"
		if id := u.Query().Get("v"); id != "" {
			meta["video_id"] = id
		} else if strings.HasPrefix(path, "embed/") {
			meta["video_id"] = strings.TrimPrefix(path, "embed/")
		}
	case "youtu.be":
		meta["provider"] = "youtube"
		if path != "" {
			meta["video_id"] = path
		}
	case "vimeo.com", "player.vimeo.com":
		meta["provider"] = "vimeo"
		parts := strings.Split(path, "/")
		if last := parts[len(parts)-1]; last != "" {
			meta["video_id"] = last
		}
	}
	return meta
}
