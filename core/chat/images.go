package chat

import (
	"encoding/base64"
	"regexp"
	"strings"
)

const pngDataURIPrefix = "data:image/png;base64,"

var (
	// ![alt](src) or ![alt](src "title")
	markdownImageRegex = regexp.MustCompile(`!\[([^\]]*)\]\(\s*<?([^)\s>]+)>?(?:\s+["'][^"']*["'])?\s*\)`)
	// <img ... src="..." ...> (single or double quotes, optional self-closing)
	htmlImageRegex = regexp.MustCompile(`(?is)<img\b[^>]*?\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)')[^>]*>`)
	base64Regex    = regexp.MustCompile(`^[A-Za-z0-9+/_-]+={0,2}$`)
	schemeRegex    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// NormalizeImageSource returns the URL an image source resolves to.
// Raw base64 payloads become PNG data URIs; everything else is returned trimmed.
// A payload counts as base64 only if it actually decodes, so plain words stay as they are.
func NormalizeImageSource(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || schemeRegex.MatchString(src) || strings.HasPrefix(src, "/") || strings.HasPrefix(src, ".") {
		return src
	}
	compact := strings.Join(strings.Fields(src), "")
	if base64Regex.MatchString(compact) && isBase64(compact) {
		return pngDataURIPrefix + compact
	}
	return src
}

func isBase64(s string) bool {
	if len(strings.TrimRight(s, "="))%4 == 1 {
		return false
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if _, err := enc.DecodeString(s); err == nil {
			return true
		}
	}
	return false
}

// StripDuplicateImages removes the inline markdown and HTML images of text whose normalized
// source matches an attachment URL exactly. Other inline images are left intact.
func StripDuplicateImages(text string, attachments []Attachment) string {
	if len(attachments) == 0 || text == "" {
		return text
	}
	urls := make(map[string]struct{}, len(attachments))
	for _, at := range attachments {
		urls[NormalizeImageSource(at.URL)] = struct{}{}
	}
	isAttached := func(src string) bool {
		_, ok := urls[NormalizeImageSource(src)]
		return ok
	}

	text = markdownImageRegex.ReplaceAllStringFunc(text, func(match string) string {
		if sub := markdownImageRegex.FindStringSubmatch(match); sub != nil && isAttached(sub[2]) {
			return ""
		}
		return match
	})
	return htmlImageRegex.ReplaceAllStringFunc(text, func(match string) string {
		if sub := htmlImageRegex.FindStringSubmatch(match); sub != nil && isAttached(sub[1]+sub[2]) {
			return ""
		}
		return match
	})
}

// HasEmbeddedChart reports whether the message already carries a chart image,
// either as an image attachment or as an inline data-image / markdown image.
func HasEmbeddedChart(msg Message) bool {
	for _, at := range msg.Attachments {
		if at.IsImage() {
			return true
		}
	}
	return strings.Contains(msg.Content, "data:image/") || markdownImageRegex.MatchString(msg.Content)
}
