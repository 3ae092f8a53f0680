package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"potterylog/internal/auth"
	"potterylog/internal/domain"
	"potterylog/internal/service"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Failed to parse form.")
		return
	}

	stage := strings.ToLower(strings.TrimSpace(r.FormValue("photo_stage")))
	if !domain.ValidStage(stage) {
		s.writeDetail(w, http.StatusUnprocessableEntity,
			"Field 'photo_stage' must be one of greenware, bisque, final.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Photo file is required.")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "Failed to read file.")
		s.logger.Error("read upload failed", "item_id", itemID, "error", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Invalid file type. Only images are allowed.")
		return
	}

	photo, err := s.catalog.UploadPhoto(r.Context(), userID, itemID, service.PhotoUpload{
		Data:     imageData,
		MimeType: mimeType,
		FileName: header.Filename,
		Stage:    stage,
		Note:     r.FormValue("photo_note"),
	})
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			s.writeDetail(w, http.StatusNotFound, itemNotFoundDetail(itemID))
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, "Failed to upload photo.")
		s.logger.Error("upload photo failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.newPhotoResponse(photo))
}

// photoUpdatePayload carries the optional photo metadata changes. Absent
// fields stay untouched.
type photoUpdatePayload struct {
	Stage     *string `json:"stage"`
	ImageNote *string `json:"imageNote"`
}

func (s *Server) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")
	photoID := r.PathValue("photoId")

	var payload photoUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body.")
		return
	}
	if payload.Stage == nil && payload.ImageNote == nil {
		s.writeDetail(w, http.StatusBadRequest, "No update data provided.")
		return
	}
	if payload.Stage != nil && !domain.ValidStage(*payload.Stage) {
		s.writeDetail(w, http.StatusUnprocessableEntity,
			"Field 'stage' must be one of greenware, bisque, final.")
		return
	}

	photo, err := s.catalog.UpdatePhoto(r.Context(), userID, itemID, photoID, payload.Stage, payload.ImageNote)
	if err != nil {
		s.writePhotoError(w, err, itemID, photoID, "update photo failed", "Failed to update photo details.")
		return
	}
	s.writeJSON(w, http.StatusOK, s.newPhotoResponse(photo))
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")
	photoID := r.PathValue("photoId")

	if err := s.catalog.DeletePhoto(r.Context(), userID, itemID, photoID); err != nil {
		s.writePhotoError(w, err, itemID, photoID, "delete photo failed", "Failed to delete photo.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")
	photoID := r.PathValue("photoId")

	photo, err := s.catalog.SetPrimaryPhoto(r.Context(), userID, itemID, photoID)
	if err != nil {
		s.writePhotoError(w, err, itemID, photoID, "set primary photo failed", "Failed to set primary photo.")
		return
	}
	s.writeJSON(w, http.StatusOK, s.newPhotoResponse(photo))
}

// writePhotoError maps service errors from photo operations to HTTP responses.
func (s *Server) writePhotoError(w http.ResponseWriter, err error, itemID, photoID, logMsg, detail string) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		s.writeDetail(w, http.StatusNotFound, itemNotFoundDetail(itemID))
	case errors.Is(err, service.ErrPhotoNotFound):
		s.writeDetail(w, http.StatusNotFound,
			fmt.Sprintf("Photo with ID %s not found in item %s", photoID, itemID))
	default:
		s.writeDetail(w, http.StatusInternalServerError, detail)
		s.logger.Error(logMsg, "item_id", itemID, "photo_id", photoID, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
