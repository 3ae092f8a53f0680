package web

import (
	"errors"
	"io"
	"net/http"

	"potterylog/internal/photostore"
	"potterylog/internal/signedurl"
)

// handleGetPhotoObject serves a photo binary addressed by its storage key. The
// caller proves access with the expires and signature query parameters minted
// by the Signer; no session token is involved.
func (s *Server) handleGetPhotoObject(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	q := r.URL.Query()
	if err := s.signer.Verify(key, q.Get("expires"), q.Get("signature")); err != nil {
		switch {
		case errors.Is(err, signedurl.ErrExpired):
			s.writeDetail(w, http.StatusForbidden, "Signed URL has expired.")
		default:
			s.writeDetail(w, http.StatusForbidden, "Invalid signature.")
		}
		return
	}

	reader, mimeType, err := s.catalog.GetPhotoObject(r.Context(), key)
	if err != nil {
		if errors.Is(err, photostore.ErrNotFound) {
			s.writeDetail(w, http.StatusNotFound, "Photo not found.")
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, "Failed to read photo.")
		s.logger.Error("read photo object failed", "storage_key", key, "error", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "storage_key", key, "error", err)
	}
}
