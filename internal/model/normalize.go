package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoItemData is reported when a single-item response cannot be
// resolved to an item object by any known shape.
var ErrNoItemData = errors.New("no item data found")

// EnvelopeError is the explicit failure envelope some endpoints return
// instead of data: {"success": false, "message": "..."}.
type EnvelopeError struct {
	Message string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return "request rejected by server"
	}
	return e.Message
}

// ParseCollection normalizes a category-collection response body into
// canonical records. The platform API does not fix the envelope: it may
// return a bare array, the array under "categories", "data" or "items",
// or a single object, which gets wrapped into a one-element slice.
// A {"success": false} envelope yields an EnvelopeError.
func ParseCollection(body []byte) ([]Category, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding collection response: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		return categoriesFromSlice(v), nil
	case map[string]any:
		if err := failureEnvelope(v); err != nil {
			return nil, err
		}
		for _, key := range []string{"categories", "data", "items"} {
			if arr, ok := v[key].([]any); ok {
				return categoriesFromSlice(arr), nil
			}
		}
		// Single object: wrap it.
		return []Category{FromMap(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected collection response of type %T", raw)
	}
}

// ResolveItemResponse reconciles the category and item objects of a
// single-item response, which the server may return independently,
// nested, or merged. Resolution order, most to least specific:
//
//  1. explicit "item"/"category" at top level or under a "data" wrapper
//  2. the matching element of an "items" array
//  3. the matching element of category["items"]
//  4. category inferred from item["category"]
//  5. the entire body treated as the item
//
// Feeding the output shape {"category": c, "item": i} back in yields the
// same pair. Returns ErrNoItemData when nothing yields an item.
func ResolveItemResponse(body map[string]any, id string) (category, item map[string]any, err error) {
	if body == nil {
		return nil, nil, ErrNoItemData
	}

	sources := []map[string]any{body}
	if wrapped, ok := asMap(body["data"]); ok {
		sources = append(sources, wrapped)
	}

	for _, src := range sources {
		if m, ok := asMap(src["item"]); ok && item == nil {
			item = m
		}
		if m, ok := asMap(src["category"]); ok && category == nil {
			category = m
		}
	}

	if item == nil {
		for _, src := range sources {
			if arr, ok := src["items"].([]any); ok {
				if item = matchByID(arr, id); item != nil {
					break
				}
			}
		}
	}

	if item == nil && category != nil {
		if arr, ok := category["items"].([]any); ok {
			item = matchByID(arr, id)
		}
	}

	if category == nil && item != nil {
		if m, ok := asMap(item["category"]); ok {
			category = m
		}
	}

	if item == nil {
		if !looksLikeItem(body) {
			return nil, nil, ErrNoItemData
		}
		item = body
	}

	return category, item, nil
}

// matchByID returns the element whose id/_id string-compares equal to
// the wanted id, or the first element when none matches.
func matchByID(arr []any, id string) map[string]any {
	var first map[string]any
	for _, e := range arr {
		m, ok := asMap(e)
		if !ok {
			continue
		}
		if first == nil {
			first = m
		}
		if id != "" && idOf(m) == id {
			return m
		}
	}
	return first
}

// looksLikeItem reports whether a raw body plausibly is an item record
// rather than an empty or error envelope.
func looksLikeItem(m map[string]any) bool {
	if success, ok := m["success"].(bool); ok && !success {
		return false
	}
	for _, key := range []string{
		"id", "_id", "name", "title", "itemName",
		"imageUrl", "image", "voiceUrl", "audioUrl", "audio", "voice",
		"description",
	} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// categoriesFromSlice converts a raw response array into canonical
// records, skipping elements that are not objects.
func categoriesFromSlice(arr []any) []Category {
	cats := make([]Category, 0, len(arr))
	for _, e := range arr {
		if m, ok := asMap(e); ok {
			cats = append(cats, FromMap(m))
		}
	}
	return cats
}

func failureEnvelope(m map[string]any) error {
	success, ok := m["success"].(bool)
	if !ok || success {
		return nil
	}
	msg, _ := m["message"].(string)
	return &EnvelopeError{Message: msg}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// MatchesSearch reports whether the category matches a free-text search
// term by case-insensitive substring over name and description.
func (c Category) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Description), term)
}
