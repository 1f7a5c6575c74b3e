package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/boldtribe/kids-admin/internal/model"
)

// ListCategories fetches the category collection and normalizes it into
// canonical records with qualified media URLs.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	data, err := c.send(ctx, http.MethodGet, "/categories", "", nil)
	if err != nil {
		return nil, err
	}

	categories, err := model.ParseCollection(data)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		categories[i].ImageURL = c.ResolveMediaURL(categories[i].ImageURL)
		categories[i].VoiceURL = c.ResolveMediaURL(categories[i].VoiceURL)
	}
	return categories, nil
}

// GetItem fetches a single category/item by id and resolves the
// response into its category (possibly absent) and item halves.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Category, model.Category, error) {
	data, err := c.send(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), "", nil)
	if err != nil {
		return nil, model.Category{}, err
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		// Some endpoints answer with a bare array; present it as an
		// items envelope so resolution can match by id.
		var arr []any
		if arrErr := json.Unmarshal(data, &arr); arrErr != nil {
			return nil, model.Category{}, fmt.Errorf("decoding item response: %w", err)
		}
		body = map[string]any{"items": arr}
	}

	rawCategory, rawItem, err := model.ResolveItemResponse(body, id)
	if err != nil {
		return nil, model.Category{}, err
	}

	item := model.FromMap(rawItem)
	item.ImageURL = c.ResolveMediaURL(item.ImageURL)
	item.VoiceURL = c.ResolveMediaURL(item.VoiceURL)

	var category *model.Category
	if rawCategory != nil {
		rec := model.FromMap(rawCategory)
		rec.ImageURL = c.ResolveMediaURL(rec.ImageURL)
		rec.VoiceURL = c.ResolveMediaURL(rec.VoiceURL)
		category = &rec
	}

	return category, item, nil
}

// Upload is a file attached to a draft submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Draft is the payload of a create or update submission. Image and
// Audio are nil on edit when the existing media should be kept.
type Draft struct {
	CategoryName string
	ItemName     string
	Description  string
	Image        *Upload
	Audio        *Upload
}

// description returns the explicit description, or the derived
// "<item> picture and sound" form the platform expects.
func (d Draft) description() string {
	if d.Description != "" {
		return d.Description
	}
	return d.ItemName + " picture and sound"
}

// CreateItem submits a new category item as multipart form data.
func (c *Client) CreateItem(ctx context.Context, draft Draft) error {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPost, "/items/create", contentType, body)
	return err
}

// UpdateItem updates an existing item via multipart PUT. Omitted media
// parts mean "keep existing".
func (c *Client) UpdateItem(ctx context.Context, id string, draft Draft) error {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPut, "/items/"+url.PathEscape(id), contentType, body)
	return err
}

// encodeDraft assembles the multipart payload the platform expects.
func encodeDraft(d Draft) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"categoryName": d.CategoryName,
		"itemName":     d.ItemName,
		"description":  d.description(),
		"isPublic":     "true",
	}
	for _, name := range []string{"categoryName", "itemName", "description", "isPublic"} {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", name, err)
		}
	}

	if d.Image != nil {
		if err := writeFilePart(w, "image", d.Image); err != nil {
			return nil, "", err
		}
	}
	if d.Audio != nil {
		audio := *d.Audio
		if audio.Filename == "" {
			audio.Filename = "recording.wav"
		}
		if err := writeFilePart(w, "voice", &audio); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finishing multipart payload: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, field string, upload *Upload) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.Filename))
	if upload.ContentType != "" {
		header.Set("Content-Type", upload.ContentType)
	}

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return fmt.Errorf("writing %s part: %w", field, err)
	}
	return nil
}
