package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"potterylog/internal/auth"
	"potterylog/internal/service"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	items, err := s.catalog.ListItems(r.Context(), userID)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "Failed to retrieve items.")
		s.logger.Error("list items failed", "user_id", userID, "error", err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, s.newItemResponse(item))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body.")
		return
	}
	if problem := payload.validate(); problem != "" {
		s.writeDetail(w, http.StatusUnprocessableEntity, problem)
		return
	}

	item, err := s.catalog.CreateItem(r.Context(), userID, payload.toDomain())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "Failed to create item.")
		s.logger.Error("create item failed", "user_id", userID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.newItemResponse(item))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	item, err := s.catalog.GetItem(r.Context(), userID, itemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			s.writeDetail(w, http.StatusNotFound, itemNotFoundDetail(itemID))
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, "Failed to retrieve item.")
		s.logger.Error("get item failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.newItemResponse(item))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body.")
		return
	}
	if problem := payload.validate(); problem != "" {
		s.writeDetail(w, http.StatusUnprocessableEntity, problem)
		return
	}

	item, err := s.catalog.UpdateItem(r.Context(), userID, itemID, payload.toDomain())
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			s.writeDetail(w, http.StatusNotFound, itemNotFoundDetail(itemID))
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, "Failed to update item metadata.")
		s.logger.Error("update item failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.newItemResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	if err := s.catalog.DeleteItem(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			s.writeDetail(w, http.StatusNotFound, itemNotFoundDetail(itemID))
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, "Failed to delete item.")
		s.logger.Error("delete item failed", "item_id", itemID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemNotFoundDetail(itemID string) string {
	return fmt.Sprintf("Item with ID %s not found", itemID)
}
