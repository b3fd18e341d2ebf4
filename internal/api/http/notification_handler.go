package http

import (
	"net/http"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt32(r, "page", 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size", 20)
	if err != nil {
		respondError(w, r, err)
		return
	}
	items, total, err := h.noteSvc.GetNotifications(r.Context(), caller(r).UserID, page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, pageResponse[domain.Notification]{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.noteSvc.MarkAsRead(r.Context(), caller(r).UserID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
