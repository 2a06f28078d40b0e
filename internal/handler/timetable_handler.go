package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/response"
	"github.com/scholaris/scholaris-backend/internal/service"
	"github.com/scholaris/scholaris-backend/internal/validator"
)

// TimetableHandler handles timetable slot endpoints.
type TimetableHandler struct {
	timetableService *service.TimetableService
}

// NewTimetableHandler creates a new TimetableHandler.
func NewTimetableHandler(timetableService *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableService: timetableService}
}

// SetupTimetable godoc
// POST /api/v1/admin/timetable
// Single-endpoint dispatch over slot mutations: {action: add|update|delete}.
// The direct CRUD routes apply the same validation; this exists for clients
// that drive the timetable through one form.
func (h *TimetableHandler) SetupTimetable(c *gin.Context) {
	var req model.TimetableSetupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	switch req.Action {
	case "add":
		if req.Slot == nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"slot": "slot is required for action add"})
			return
		}
		slot, err := slotFromPartial(req.Slot)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"slot": err.Error()})
			return
		}
		if err := h.timetableService.CreateSlot(c.Request.Context(), slot); err != nil {
			failDomain(c, err)
			return
		}
		response.Success(c, http.StatusCreated, gin.H{"slot": slot})

	case "update":
		if req.SlotID == nil || req.Slot == nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"slot_id": "slot_id and slot are required for action update"})
			return
		}
		id, err := uuid.Parse(*req.SlotID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		in, err := updateInputFromRequest(req.Slot)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidTimeWindow)
			return
		}
		slot, err := h.timetableService.UpdateSlot(c.Request.Context(), id, in)
		if err != nil {
			failDomain(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"slot": slot})

	case "delete":
		if req.SlotID == nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"slot_id": "slot_id is required for action delete"})
			return
		}
		id, err := uuid.Parse(*req.SlotID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		existed, err := h.timetableService.DeleteSlot(c.Request.Context(), id)
		if err != nil {
			failDomain(c, err)
			return
		}
		if !existed {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Success(c, http.StatusOK, gin.H{})
	}
}

// CreateSlot godoc
// POST /api/v1/admin/timetable/slots
// Schedules a slot after conflict validation. Conflicting slot ids come back
// in the error details.
func (h *TimetableHandler) CreateSlot(c *gin.Context) {
	var req model.CreateSlotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	slot, err := slotFromRequest(&req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidTimeWindow)
		return
	}

	if err := h.timetableService.CreateSlot(c.Request.Context(), slot); err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"slot": slot})
}

// GetSlot godoc
// GET /api/v1/admin/timetable/slots/:id
func (h *TimetableHandler) GetSlot(c *gin.Context) {
	id, ok := slotID(c)
	if !ok {
		return
	}

	slot, err := h.timetableService.GetSlot(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slot": slot})
}

// ListSlots godoc
// GET /api/v1/admin/timetable/slots?semester=1&academic_year=2026/2027
func (h *TimetableHandler) ListSlots(c *gin.Context) {
	semester := c.Query("semester")
	academicYear := c.Query("academic_year")
	if semester == "" || academicYear == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"semester":      "semester and academic_year query parameters are required",
			"academic_year": "semester and academic_year query parameters are required",
		})
		return
	}

	slots, err := h.timetableService.ListBySemester(c.Request.Context(), semester, academicYear)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

// UpdateSlot godoc
// PUT /api/v1/admin/timetable/slots/:id
// Partial update with full conflict re-validation of the merged slot. The
// slot never conflicts with its own stored row.
func (h *TimetableHandler) UpdateSlot(c *gin.Context) {
	id, ok := slotID(c)
	if !ok {
		return
	}

	var req model.UpdateSlotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	in, err := updateInputFromRequest(&req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidTimeWindow)
		return
	}

	slot, err := h.timetableService.UpdateSlot(c.Request.Context(), id, in)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slot": slot})
}

// DeleteSlot godoc
// DELETE /api/v1/admin/timetable/slots/:id
func (h *TimetableHandler) DeleteSlot(c *gin.Context) {
	id, ok := slotID(c)
	if !ok {
		return
	}

	existed, err := h.timetableService.DeleteSlot(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}
	if !existed {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func slotID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func slotFromRequest(req *model.CreateSlotRequest) (*model.TimetableSlot, error) {
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	return &model.TimetableSlot{
		CourseID:     req.CourseID,
		TeacherID:    req.TeacherID,
		ClassID:      req.ClassID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    start,
		EndTime:      end,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		Room:         req.Room,
	}, nil
}

// slotFromPartial builds a full slot from the setup payload, rejecting
// missing required fields.
func slotFromPartial(req *model.UpdateSlotRequest) (*model.TimetableSlot, error) {
	if req.CourseID == nil || req.TeacherID == nil || req.ClassID == nil ||
		req.DayOfWeek == nil || req.StartTime == nil || req.EndTime == nil ||
		req.Semester == nil || req.AcademicYear == nil {
		return nil, errors.New("course_id, teacher_id, class_id, day_of_week, start_time, end_time, semester and academic_year are required")
	}

	full := model.CreateSlotRequest{
		CourseID:     *req.CourseID,
		TeacherID:    *req.TeacherID,
		ClassID:      *req.ClassID,
		DayOfWeek:    *req.DayOfWeek,
		StartTime:    *req.StartTime,
		EndTime:      *req.EndTime,
		Semester:     *req.Semester,
		AcademicYear: *req.AcademicYear,
	}
	if req.Room != nil {
		full.Room = *req.Room
	}
	return slotFromRequest(&full)
}

func updateInputFromRequest(req *model.UpdateSlotRequest) (service.UpdateSlotInput, error) {
	in := service.UpdateSlotInput{
		CourseID:     req.CourseID,
		TeacherID:    req.TeacherID,
		ClassID:      req.ClassID,
		DayOfWeek:    req.DayOfWeek,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		Room:         req.Room,
	}
	if req.StartTime != nil {
		start, err := model.ParseClock(*req.StartTime)
		if err != nil {
			return in, err
		}
		in.Start = &start
	}
	if req.EndTime != nil {
		end, err := model.ParseClock(*req.EndTime)
		if err != nil {
			return in, err
		}
		in.End = &end
	}
	return in, nil
}
