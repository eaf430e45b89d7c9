package notify

import (
	"regexp"

	"github.com/google/uuid"
)

// mentionPattern matches editor mention tokens of the form @[Display Name](user-uuid).
var mentionPattern = regexp.MustCompile(`@\[[^\]\n]{0,128}\]\(([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\)`)

// ParseMentions extracts mentioned user ids from content, deduplicated in order of appearance.
func ParseMentions(content string) []uuid.UUID {
	s := newIDSet()
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		if id, err := uuid.Parse(m[1]); err == nil {
			s.add(id)
		}
	}
	return s.order
}

// MergeMentions unions explicit ids with ids parsed from content.
func MergeMentions(explicit []uuid.UUID, content string) []uuid.UUID {
	s := newIDSet(explicit...)
	for _, id := range ParseMentions(content) {
		s.add(id)
	}
	return s.order
}
