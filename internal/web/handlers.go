package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/JonMunkholm/catalog/internal/web/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartOverhead is the slack allowed above the file size limit for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

// defaultUploadName is used when a raw body upload carries no name.
const defaultUploadName = "upload.csv"

func (s *Server) handleCatalogPage(w http.ResponseWriter, r *http.Request) {
	var data views.PageData

	snap, err := s.service.Latest(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Nothing built yet; render the empty page.
	case err != nil:
		respondError(w, r, err)
		return
	default:
		data = views.PageData{
			Source:    snap.Source,
			CreatedAt: snap.CreatedAt,
			Stats:     snap.Catalog.Stats,
			Products:  snap.Catalog.Products,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.CatalogPage(data).Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Imports  core.ImportLimiterStatus `json:"imports"`
	Snapshot *uuid.UUID               `json:"snapshot,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Imports: s.service.Limiter().Status(),
	}
	if snap, err := s.service.Latest(r.Context()); err == nil {
		resp.Snapshot = &snap.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleProducts returns the latest snapshot. ?class= narrows the
// products to one class, case-insensitively.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Latest(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if class := r.URL.Query().Get("class"); class != "" {
		filtered := snap.Catalog.Products[:0:0]
		for _, p := range snap.Catalog.Products {
			if strings.EqualFold(p.Class, class) {
				filtered = append(filtered, p)
			}
		}
		snap.Catalog.Products = filtered
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid limit",
				Message: "limit must be a positive integer",
				Code:    "REQ001",
			})
			return
		}
		limit = n
	}

	summaries, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid snapshot id",
			Message: "Snapshot IDs are UUIDs",
			Code:    "REQ002",
		})
		return
	}

	snap, err := s.service.Snapshot(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMetadata(r.Context(), r)

	snap, err := s.service.Refresh(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer body.Close()

	snap, err := s.service.Import(withRequestMetadata(r.Context(), r), name, body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.Summary())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer body.Close()

	result, err := s.service.Preview(withRequestMetadata(r.Context(), r), name, body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// uploadedFile returns the uploaded export and its name. Multipart
// requests carry it in the "file" field; any other body is the file
// itself, named by ?name= (default upload.csv).
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	limit := s.cfg.Import.MaxFileSize
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return "", nil, err
			}
			return "", nil, errNoFile
		}
		return filepath.Base(header.Filename), file, nil
	}

	if r.ContentLength == 0 {
		return "", nil, errNoFile
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	return filepath.Base(name), r.Body, nil
}
