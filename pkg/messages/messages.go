package messages

import (
	"fmt"
	"sort"
	"strings"
)

// Level is the ordinal severity of a notification. Higher is more severe.
type Level int

const (
	LevelDebug   Level = 10
	LevelInfo    Level = 20
	LevelSuccess Level = 25
	LevelWarning Level = 30
	LevelError   Level = 40
)

// String returns the lowercase label for the level, which doubles as the
// level's CSS styling tag. Unrecognized levels format as "level-N".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level-%d", int(l))
	}
}

// Message is a single user-facing notification.
type Message struct {
	// Level is the severity of the message.
	Level Level `json:"level"`

	// ExtraTags holds optional space-separated free-text labels that further
	// classify the message, e.g. "auth" or "upload quota".
	ExtraTags string `json:"extra_tags,omitempty"`

	// Text is the human-readable message body.
	Text string `json:"text"`
}

// Tags returns the full category string for the message: the extra tags
// followed by the level label, joined by single spaces.
func (m Message) Tags() string {
	extra := strings.TrimSpace(m.ExtraTags)
	if extra == "" {
		return m.Level.String()
	}
	return extra + " " + m.Level.String()
}

// Group is an ordered run of message texts sharing one (level, tags) key.
type Group struct {
	Level Level
	Tags  string
	Texts []string
}

// Classify buckets msgs by their (level, tags) key and returns the groups
// sorted by level first and tags second. Within a group, texts keep the order
// in which the messages appeared in the input. Every input message lands in
// exactly one group. Groups live only for the duration of one render pass.
func Classify(msgs []Message) []Group {
	type key struct {
		level Level
		tags  string
	}

	byKey := make(map[key]int, len(msgs))
	var groups []Group
	for _, m := range msgs {
		k := key{m.Level, m.Tags()}
		idx, ok := byKey[k]
		if !ok {
			idx = len(groups)
			byKey[k] = idx
			groups = append(groups, Group{Level: m.Level, Tags: k.tags})
		}
		groups[idx].Texts = append(groups[idx].Texts, m.Text)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Level != groups[j].Level {
			return groups[i].Level < groups[j].Level
		}
		return groups[i].Tags < groups[j].Tags
	})

	return groups
}
