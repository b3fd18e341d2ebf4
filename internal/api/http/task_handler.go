package http

import (
	"net/http"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type TaskHandler struct {
	taskSvc service.TaskService
}

func NewTaskHandler(taskSvc service.TaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := h.taskSvc.CreateAndAssignTask(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type reassignBody struct {
	WorkerID int32 `json:"worker_id"`
}

func (h *TaskHandler) ReassignTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body reassignBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if body.WorkerID <= 0 {
		respondError(w, r, domain.ValidationError("worker_id is required"))
		return
	}
	t, err := h.taskSvc.ReassignTask(r.Context(), id, body.WorkerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := h.taskSvc.StartTask(r.Context(), caller(r).UserID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := h.taskSvc.CompleteTask(r.Context(), caller(r).UserID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "warehouseID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.taskSvc.AutoAssignPendingTasks(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TaskHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "warehouseID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.taskSvc.BalanceWorkload(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TaskHandler) WorkerLoads(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "warehouseID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	loads, err := h.taskSvc.GetWorkerLoads(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if loads == nil {
		loads = []domain.WorkerLoad{}
	}
	writeJSON(w, http.StatusOK, loads)
}
