package aggregates

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const MaxContentRunes = 5000

var (
	errEmptyText   = errors.New("content is empty")
	errTextTooLong = fmt.Errorf("content exceeds %d characters", MaxContentRunes)

	stripTagsPolicy = bluemonday.StripTagsPolicy()
)

// maxStripPasses bounds how many entity-decoding rounds are re-stripped.
const maxStripPasses = 4

// SanitizeText strips markup and surrounding whitespace and enforces the
// 1..MaxContentRunes length bound on what remains.
func SanitizeText(s string) (string, error) {
	clean := strings.TrimSpace(stripTags(s))
	if clean == "" {
		return "", errEmptyText
	}
	if utf8.RuneCountInString(clean) > MaxContentRunes {
		return "", errTextTooLong
	}
	return clean, nil
}

// stripTags removes tags and decodes entities until the text is stable, so
// entity-encoded markup cannot come back as live tags.
func stripTags(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(stripTagsPolicy.Sanitize(s))
		if next == s {
			return next
		}
		s = next
	}
	return stripTagsPolicy.Sanitize(s)
}

func isEmptyText(err error) bool { return errors.Is(err, errEmptyText) }
