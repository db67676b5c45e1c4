package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
)

// decodeJSON reads a JSON body into dst. An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errs.NewMaxBodySizeExceededError(maxErr.Limit)
	}
	return errs.NewMalformedPayloadError("JSON", err)
}

func requestMediaType(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func projectIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "projectID")
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError("projectID")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError("projectID", "must be a UUID")
	}
	return id, nil
}

// parseProjectFilter reads member, skill, q, status, limit and offset from the query string.
func parseProjectFilter(r *http.Request) (models.ProjectFilter, error) {
	query := r.URL.Query()
	filter := models.ProjectFilter{
		Skill:  strings.TrimSpace(query.Get("skill")),
		Search: strings.TrimSpace(query.Get("q")),
	}

	if member := strings.TrimSpace(query.Get("member")); member != "" {
		id, err := uuid.Parse(member)
		if err != nil {
			return filter, errs.NewInvalidFieldError("member", "must be a UUID")
		}
		filter.MemberID = &id
	}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := models.ProjectStatus(raw)
		if !status.Valid() {
			return filter, errs.NewInvalidFieldError("status", "must be one of pending, approved, rejected")
		}
		filter.Status = &status
	}

	var err error
	if filter.Limit, err = intQuery(query.Get("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intQuery(query.Get("offset"), "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func intQuery(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewInvalidFieldError(field, "must be a non-negative integer")
	}
	return n, nil
}
