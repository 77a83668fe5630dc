package flow

import (
	"sort"
	"strings"
)

// MatchesTrigger reports whether an incoming message starts this flow.
// A flow without trigger keywords matches any message.
func MatchesTrigger(d Document, message string) bool {
	if len(d.TriggerKeywords) == 0 {
		return true
	}
	message = strings.ToLower(strings.TrimSpace(message))
	for _, kw := range d.TriggerKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if message == kw || strings.HasPrefix(message, kw+" ") || strings.Contains(message, " "+kw) {
			return true
		}
	}
	return false
}

// SelectForMessage picks the live flow for a channel and message: active,
// published, on the channel, trigger matched, highest priority first, most
// recently updated on ties.
func SelectForMessage(docs []Document, channel, message string) (Document, bool) {
	var candidates []Document
	for _, d := range docs {
		if !d.Active || !d.Published || !hasChannel(d, channel) {
			continue
		}
		if MatchesTrigger(d, message) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return Document{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	return candidates[0], true
}

func hasChannel(d Document, channel string) bool {
	for _, c := range d.Channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}
	return false
}
