package handlers

import (
	"net/http"

	"github.com/sevadesk/civicbook/internal/application/services"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
)

// DepartmentHandler handles department discovery and slot listing requests
type DepartmentHandler struct {
	departmentRepo repositories.DepartmentRepository
	serviceRepo    repositories.ServiceRepository
	slotService    *services.SlotService
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(
	departmentRepo repositories.DepartmentRepository,
	serviceRepo repositories.ServiceRepository,
	slotService *services.SlotService,
) *DepartmentHandler {
	return &DepartmentHandler{
		departmentRepo: departmentRepo,
		serviceRepo:    serviceRepo,
		slotService:    slotService,
	}
}

// ListDepartments handles GET /api/departments
func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departmentRepo.List(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"departments": departments,
		"count":       len(departments),
	})
}

// GetDepartment handles GET /api/departments/{deptId}
func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	if deptID == "" {
		respondWithError(w, http.StatusBadRequest, "department ID is required")
		return
	}

	dept, err := h.departmentRepo.GetByID(r.Context(), deptID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dept)
}

// ListServices handles GET /api/departments/{deptId}/services
func (h *DepartmentHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	if deptID == "" {
		respondWithError(w, http.StatusBadRequest, "department ID is required")
		return
	}

	svcs, err := h.serviceRepo.ListByDepartment(r.Context(), deptID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": svcs,
		"count":    len(svcs),
	})
}

// ListBookingDates handles GET /api/departments/{deptId}/booking/dates
func (h *DepartmentHandler) ListBookingDates(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	if deptID == "" {
		respondWithError(w, http.StatusBadRequest, "department ID is required")
		return
	}

	dates, err := h.slotService.ListDates(r.Context(), deptID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
	})
}

// ListSlots handles GET /api/departments/{deptId}/booking/{serviceId}/slots?date=YYYY-MM-DD
func (h *DepartmentHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	serviceID := r.PathValue("serviceId")
	date := r.URL.Query().Get("date")

	if deptID == "" || serviceID == "" {
		respondWithError(w, http.StatusBadRequest, "department and service IDs are required")
		return
	}
	if date == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := h.slotService.ListSlots(r.Context(), deptID, serviceID, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(slots))
	for _, slot := range slots {
		payload = append(payload, map[string]interface{}{
			"date":               slot.Date,
			"start_time":         slot.StartTime,
			"end_time":           slot.EndTime,
			"capacity":           slot.Capacity,
			"priority_capacity":  slot.PriorityCapacity,
			"regular_remaining":  slot.RegularRemaining(),
			"priority_remaining": slot.PriorityRemaining(),
			"fully_booked":       slot.IsFullyBooked(),
		})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date,
		"slots": payload,
	})
}
