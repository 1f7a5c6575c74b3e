package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boldtribe/kids-admin/internal/media"
	"github.com/boldtribe/kids-admin/internal/model"
	"github.com/boldtribe/kids-admin/internal/platform"
)

// maxUploadBytes bounds a whole category submission: one image, one
// voice clip, and the text fields.
const maxUploadBytes = media.MaxImageSize + media.MaxAudioSize + 1<<20

// categoryForm holds the text fields of a create/edit submission, kept
// around so a failed submit never loses entered data.
type categoryForm struct {
	CategoryName string
	ItemName     string
	Description  string
}

// categoryFormPage is the template data for the add and edit screens.
type categoryFormPage struct {
	PageData
	Form         categoryForm
	Errors       map[string]string
	ImagePreview string
	AudioPreview string
	EditID       string
	LoadFailed   bool
}

// ManageCategoriesPage handles GET /customization/manage-categories.
func (s *Server) ManageCategoriesPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := &struct {
		PageData
		Categories []model.Category
		Query      string
		Total      int
	}{
		PageData: PageData{Title: "Manage Categories", User: claims},
		Query:    query,
	}

	categories, err := s.Platform.ListCategories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		data.Error = "Failed to load categories: " + err.Error()
		s.Templates.Render(w, "categories.html", data)
		return
	}

	data.Total = len(categories)
	for _, c := range categories {
		if c.MatchesSearch(query) {
			data.Categories = append(data.Categories, c)
		}
	}

	s.Templates.Render(w, "categories.html", data)
}

// CategoriesProbe handles GET /customization/api/categories, backing
// the manage page's connection-test button.
func (s *Server) CategoriesProbe(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Platform.ListCategories(r.Context())
	if err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"count":      len(categories),
		"categories": categories,
	})
}

// AddCategoryPage handles GET /customization/add-category.
func (s *Server) AddCategoryPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	s.Templates.Render(w, "category_new.html", &categoryFormPage{
		PageData: PageData{Title: "Add Category", User: claims},
	})
}

// AddCategorySubmit handles POST /customization/add-category. All
// failing fields are collected into one error set; submission only
// reaches the platform when every field passes.
func (s *Server) AddCategorySubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	page := &categoryFormPage{
		PageData: PageData{Title: "Add Category", User: claims},
		Errors:   map[string]string{},
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		page.Error = "Upload too large or malformed."
		s.Templates.Render(w, "category_new.html", page)
		return
	}

	page.Form = categoryForm{
		CategoryName: strings.TrimSpace(r.FormValue("categoryName")),
		ItemName:     strings.TrimSpace(r.FormValue("itemName")),
		Description:  strings.TrimSpace(r.FormValue("description")),
	}

	if page.Form.CategoryName == "" {
		page.Errors["categoryName"] = "Category name is required"
	}
	if page.Form.ItemName == "" {
		page.Errors["itemName"] = "Item name is required"
	}

	image, preview := readFormImage(r, true, page.Errors)
	page.ImagePreview = preview
	audio := readFormAudio(r, true, page.Errors)

	if len(page.Errors) > 0 {
		s.Templates.Render(w, "category_new.html", page)
		return
	}

	draft := platform.Draft{
		CategoryName: page.Form.CategoryName,
		ItemName:     page.Form.ItemName,
		Description:  page.Form.Description,
		Image:        image,
		Audio:        audio,
	}

	if err := s.Platform.CreateItem(r.Context(), draft); err != nil {
		slog.Error("failed to create category item", "error", err)
		page.Error = "Failed to create category: " + err.Error()
		s.Templates.Render(w, "category_new.html", page)
		return
	}

	slog.Info("category created",
		"user", claims.Username,
		"category", page.Form.CategoryName,
		"item", page.Form.ItemName,
	)

	// Reset the form; the template shows the confirmation and returns
	// to the list after a short delay.
	s.Templates.Render(w, "category_new.html", &categoryFormPage{
		PageData: PageData{
			Title:   "Add Category",
			User:    claims,
			Success: "Category created successfully! Returning to the list…",
		},
	})
}

// EditCategoryPage handles GET /customization/edit-category/{id}.
func (s *Server) EditCategoryPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id := r.PathValue("id")

	page := &categoryFormPage{
		PageData: PageData{Title: "Edit Category", User: claims},
		EditID:   id,
	}

	category, item, err := s.Platform.GetItem(r.Context(), id)
	if err != nil {
		slog.Error("failed to fetch category details", "id", id, "error", err)
		if errors.Is(err, model.ErrNoItemData) {
			page.Error = "No item data found for this category."
		} else {
			page.Error = "Failed to load category details. Please try again."
		}
		page.LoadFailed = true
		s.Templates.Render(w, "category_edit.html", page)
		return
	}

	name := item.Name
	if category != nil && category.Name != "" {
		name = category.Name
	}

	page.Form = categoryForm{
		CategoryName: name,
		ItemName:     item.ItemName,
		Description:  item.Description,
	}
	page.ImagePreview = firstNonEmpty(item.ImageURL, categoryImageURL(category))
	page.AudioPreview = firstNonEmpty(item.VoiceURL, categoryVoiceURL(category))

	s.Templates.Render(w, "category_edit.html", page)
}

// EditCategorySubmit handles POST /customization/edit-category/{id}.
// Media is optional here: omitted parts keep the existing files.
func (s *Server) EditCategorySubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id := r.PathValue("id")

	page := &categoryFormPage{
		PageData: PageData{Title: "Edit Category", User: claims},
		EditID:   id,
		Errors:   map[string]string{},
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		page.Error = "Upload too large or malformed."
		s.Templates.Render(w, "category_edit.html", page)
		return
	}

	page.Form = categoryForm{
		CategoryName: strings.TrimSpace(r.FormValue("categoryName")),
		ItemName:     strings.TrimSpace(r.FormValue("itemName")),
		Description:  strings.TrimSpace(r.FormValue("description")),
	}
	page.ImagePreview = r.FormValue("existingImage")
	page.AudioPreview = r.FormValue("existingAudio")

	if page.Form.CategoryName == "" {
		page.Errors["categoryName"] = "Category name is required"
	}
	if page.Form.ItemName == "" {
		page.Errors["itemName"] = "Item name is required"
	}

	image, preview := readFormImage(r, false, page.Errors)
	if preview != "" {
		page.ImagePreview = preview
	}
	audio := readFormAudio(r, false, page.Errors)

	if len(page.Errors) > 0 {
		s.Templates.Render(w, "category_edit.html", page)
		return
	}

	draft := platform.Draft{
		CategoryName: page.Form.CategoryName,
		ItemName:     page.Form.ItemName,
		Description:  page.Form.Description,
		Image:        image,
		Audio:        audio,
	}

	if err := s.Platform.UpdateItem(r.Context(), id, draft); err != nil {
		slog.Error("failed to update category item", "id", id, "error", err)
		page.Error = "Failed to update category: " + err.Error()
		s.Templates.Render(w, "category_edit.html", page)
		return
	}

	slog.Info("category updated", "user", claims.Username, "id", id, "item", page.Form.ItemName)
	http.Redirect(w, r, "/customization/manage-categories", http.StatusSeeOther)
}

// readFormImage reads and validates the uploaded image part. A missing
// part is only an error when the image is required. Oversized or
// malformed images set the field error and produce no preview.
func readFormImage(r *http.Request, required bool, errs map[string]string) (*platform.Upload, string) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if required {
			errs["image"] = "Please upload an image"
		}
		return nil, ""
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errs["image"] = "Could not read the uploaded image"
		return nil, ""
	}

	info, err := media.InspectImage(data)
	if err != nil {
		errs["image"] = err.Error()
		return nil, ""
	}

	return &platform.Upload{
		Filename:    header.Filename,
		ContentType: info.MIME,
		Data:        data,
	}, media.ThumbnailDataURI(data)
}

// readFormAudio reads and validates the recorded voice clip part.
func readFormAudio(r *http.Request, required bool, errs map[string]string) *platform.Upload {
	file, _, err := r.FormFile("voice")
	if err != nil {
		if required {
			errs["audio"] = "Please record a voice message"
		}
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errs["audio"] = "Could not read the recorded clip"
		return nil
	}

	info, err := media.InspectAudio(data)
	if err != nil {
		errs["audio"] = err.Error()
		return nil
	}

	return &platform.Upload{
		Filename:    media.ClipFilename(info.MIME),
		ContentType: info.MIME,
		Data:        data,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func categoryImageURL(c *model.Category) string {
	if c == nil {
		return ""
	}
	return c.ImageURL
}

func categoryVoiceURL(c *model.Category) string {
	if c == nil {
		return ""
	}
	return c.VoiceURL
}
