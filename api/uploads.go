package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"golang.org/x/sync/errgroup"
)

const (
	multipartMemory  = 8 << 20
	uploadFanOut     = 4
	pictureField     = "picture"
	mediaFilesField  = "media_files"
	projectDataField = "data"
)

// projectForm is a multipart submission: the project fields plus the files to store.
type projectForm struct {
	request    CreateProjectRequest
	picture    *multipart.FileHeader
	mediaFiles []*multipart.FileHeader
}

// parseProjectForm accepts either a JSON "data" part or plain form fields.
func parseProjectForm(r *http.Request) (projectForm, error) {
	var form projectForm
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return form, errs.NewMaxBodySizeExceededError(maxErr.Limit)
		}
		return form, errs.NewMalformedPayloadError("multipart", err)
	}
	values := r.MultipartForm.Value

	if data := firstValue(values, projectDataField); data != "" {
		if err := json.Unmarshal([]byte(data), &form.request); err != nil {
			return form, errs.NewMalformedPayloadError("JSON", err)
		}
	} else {
		form.request.Name = firstValue(values, "name")
		if description, ok := values["description"]; ok && len(description) > 0 {
			form.request.Description = &description[0]
		}
		for _, raw := range splitValues(values["participants"]) {
			id, err := uuid.Parse(raw)
			if err != nil {
				return form, errs.NewInvalidFieldError("participants", fmt.Sprintf("%q is not a UUID", raw))
			}
			form.request.Participants = append(form.request.Participants, id)
		}
		form.request.Skills = values["skills"]
		if media := firstValue(values, "media"); media != "" {
			if err := json.Unmarshal([]byte(media), &form.request.Media); err != nil {
				return form, errs.NewInvalidFieldError("media", "must be a JSON array of {type, url, description}")
			}
		}
	}

	if pictures := r.MultipartForm.File[pictureField]; len(pictures) > 0 {
		form.picture = pictures[0]
	}
	form.mediaFiles = r.MultipartForm.File[mediaFilesField]
	return form, nil
}

// storedUploads are the URLs written to the blob store for one request.
type storedUploads struct {
	pictureURL *string
	media      []models.MediaDescriptor
}

func (s storedUploads) urls() []string {
	var urls []string
	if s.pictureURL != nil {
		urls = append(urls, *s.pictureURL)
	}
	for _, m := range s.media {
		urls = append(urls, m.URL)
	}
	return urls
}

// classifyUploads checks declared content types before anything is stored.
func classifyUploads(form projectForm) ([]models.MediaType, error) {
	if form.picture != nil {
		contentType := form.picture.Header.Get("Content-Type")
		if mediaType, ok := models.MediaTypeFromContentType(contentType); !ok || mediaType != models.MediaImage {
			return nil, errs.NewUnsupportedMediaTypeError(contentType, []string{"image/*"})
		}
	}
	types := make([]models.MediaType, len(form.mediaFiles))
	for i, fh := range form.mediaFiles {
		contentType := fh.Header.Get("Content-Type")
		mediaType, ok := models.MediaTypeFromContentType(contentType)
		if !ok {
			return nil, errs.NewUnsupportedMediaTypeError(contentType, []string{"image/*", "video/*"})
		}
		types[i] = mediaType
	}
	return types, nil
}

// storeUploads writes the picture and media files concurrently. On failure everything
// already written is returned in stored so the caller can discard it.
func (h projectHandler) storeUploads(ctx context.Context, form projectForm) (storedUploads, error) {
	var stored storedUploads
	if form.picture == nil && len(form.mediaFiles) == 0 {
		return stored, nil
	}
	if h.blobStore == nil {
		return stored, errs.NewServiceUnavailableError("blob storage")
	}

	mediaTypes, err := classifyUploads(form)
	if err != nil {
		return stored, err
	}

	var mu sync.Mutex
	media := make([]*models.MediaDescriptor, len(form.mediaFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadFanOut)

	if form.picture != nil {
		g.Go(func() error {
			url, err := h.upload(gctx, form.picture)
			if err != nil {
				return err
			}
			mu.Lock()
			stored.pictureURL = &url
			mu.Unlock()
			return nil
		})
	}
	for i, fh := range form.mediaFiles {
		i, fh := i, fh
		g.Go(func() error {
			url, err := h.upload(gctx, fh)
			if err != nil {
				return err
			}
			mu.Lock()
			media[i] = &models.MediaDescriptor{Type: mediaTypes[i], URL: url}
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	for _, m := range media {
		if m != nil {
			stored.media = append(stored.media, *m)
		}
	}
	if err != nil {
		return stored, errs.NewInternalErrorWithCause(fmt.Errorf("store upload: %w", err))
	}
	return stored, nil
}

func (h projectHandler) upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.blobStore.Upload(ctx, file, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
}

func (h projectHandler) discardUploads(stored storedUploads) {
	urls := stored.urls()
	if len(urls) == 0 || h.blobRemover == nil {
		return
	}
	h.logger.Warn().Int("count", len(urls)).Msg("discarding uploads of failed submission")
	h.blobRemover.Remove(urls...)
}

// Helper functions

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// splitValues flattens repeated and comma separated form values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
