package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"authx-console/internal/authapi"
	"authx-console/internal/server/interceptors"
	"authx-console/internal/widget"
)

// DraftView is the JSON form of a saved widget draft.
type DraftView struct {
	OrgID       string        `json:"org_id"`
	Version     int64         `json:"version"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	Config      widget.Config `json:"config"`
}

func draftView(d *widget.Draft) DraftView {
	v := DraftView{OrgID: d.OrgID, Version: d.Version, PublishedAt: d.PublishedAt, Config: d.Config}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

type widgetHandler struct {
	svc *widget.Service
}

func operator(r *http.Request) string {
	if op, ok := interceptors.GetOperator(r.Context()); ok {
		return op
	}
	return "unknown"
}

func (h *widgetHandler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView(d))
}

func (h *widgetHandler) put(w http.ResponseWriter, r *http.Request) {
	var cfg widget.Config
	if !decodeJSON(w, r, &cfg) {
		return
	}
	d, err := h.svc.Save(r.Context(), chi.URLParam(r, "orgID"), operator(r), cfg)
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView(d))
}

func (h *widgetHandler) reset(w http.ResponseWriter, r *http.Request) {
	tab, err := widget.ParseTab(chi.URLParam(r, "tab"))
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	d, err := h.svc.Reset(r.Context(), chi.URLParam(r, "orgID"), operator(r), tab)
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView(d))
}

// uploadLogo takes a multipart form with the image in the "logo" field.
func (h *widgetHandler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, widget.MaxLogoBytes+maxBody)
	file, _, err := r.FormFile("logo")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "logo file required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, widget.MaxLogoBytes+1))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "could not read logo")
		return
	}
	d, err := h.svc.UploadLogo(r.Context(), chi.URLParam(r, "orgID"), operator(r), data)
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView(d))
}

func (h *widgetHandler) publish(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Publish(r.Context(), chi.URLParam(r, "orgID"), operator(r), interceptors.ExtractBearer(r))
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// logo serves a stored logo; the key is everything after /logos/. Objects that are not an accepted
// image type are served as downloads.
func (h *widgetHandler) logo(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	data, contentType, err := h.svc.Logo(r.Context(), key)
	if err != nil {
		writeWidgetError(w, err)
		return
	}
	hdr := w.Header()
	if !widget.IsLogoType(contentType) {
		contentType = "application/octet-stream"
		hdr.Set("Content-Disposition", "attachment")
	}
	hdr.Set("Content-Type", contentType)
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	hdr.Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

func writeWidgetError(w http.ResponseWriter, err error) {
	var ve *widget.ViolationsError
	var de *authapi.DetailError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "invalid widget configuration", Violations: ve.Violations})
	case errors.As(err, &de):
		writeDetail(w, http.StatusBadRequest, de.Detail)
	case errors.Is(err, widget.ErrMissingBearer):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, widget.ErrNotFound), errors.Is(err, widget.ErrLogoNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, widget.ErrUnknownTab), errors.Is(err, widget.ErrMissingOrg):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, widget.ErrLogoType):
		writeDetail(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, widget.ErrLogoTooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, authapi.ErrTransport):
		log.Printf("server: widget publish: %v", err)
		writeDetail(w, http.StatusBadGateway, "authentication service unavailable")
	default:
		log.Printf("server: widget: %v", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}
