package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Category is the canonical record for a learning category. The platform
// API aliases most field names differently across endpoints, so screens
// never touch raw response maps; everything goes through FromMap first.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemName    string    `json:"itemName,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	VoiceURL    string    `json:"voiceUrl,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	Status      string    `json:"status"`
}

// Item statuses as reported by the platform API.
const StatusActive = "Active"

// FromMap builds a canonical Category from a raw response object,
// probing every known field alias.
func FromMap(m map[string]any) Category {
	c := Category{
		ID:          idOf(m),
		Name:        stringField(m, "name", "title"),
		Description: stringField(m, "description"),
		ItemName:    stringField(m, "itemName", "item_name"),
		ImageURL:    stringField(m, "imageUrl", "image"),
		VoiceURL:    stringField(m, "voiceUrl", "audioUrl", "audio", "voice"),
		Icon:        stringField(m, "icon"),
		Status:      stringField(m, "status"),
	}

	if c.Status == "" {
		c.Status = StatusActive
	}

	c.ItemCount = intField(m, "itemCount", "item_count")
	if c.ItemCount == 0 {
		if items, ok := m["items"].([]any); ok {
			c.ItemCount = len(items)
		}
	}

	if raw := stringField(m, "createdAt", "created_at"); raw != "" {
		c.CreatedAt = parseTime(raw)
	}

	return c
}

// idOf resolves the record's primary key, falling back from id to _id.
// The API returns both numeric and string ids.
func idOf(m map[string]any) string {
	return stringField(m, "id", "_id")
}

// stringField returns the first non-empty value among the given keys,
// converting numbers to their decimal form.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// intField returns the first numeric value among the given keys.
func intField(m map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return 0
}

// parseTime accepts the timestamp formats seen in API responses.
// Returns the zero time when the value is unparseable.
func parseTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
