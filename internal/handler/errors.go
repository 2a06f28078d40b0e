package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/response"
	"github.com/scholaris/scholaris-backend/internal/service"
)

// failDomain translates service and storage errors into the response
// envelope. Handlers call it as the fallthrough after handling any
// endpoint-specific cases.
func failDomain(c *gin.Context, err error) {
	if writeConflictDetails(c, err) {
		return
	}
	status, code := mapDomainError(err)
	response.Fail(c, status, code)
}

// failBatch reports a batch mutation that stopped partway. Writes before the
// failure point are durable, so the applied ids ride along in the error
// details under their response key.
func failBatch(c *gin.Context, err error, appliedKey string, applied []int) {
	if writeConflictDetails(c, err) {
		return
	}
	if applied == nil {
		applied = []int{}
	}
	status, code := mapDomainError(err)
	response.FailWithDetails(c, status, code, gin.H{appliedKey: applied})
}

// writeConflictDetails handles the domain error types that carry their own
// structured payload. Returns true when a response was written.
func writeConflictDetails(c *gin.Context, err error) bool {
	var activeClass *model.ActiveClassError
	if errors.As(err, &activeClass) {
		response.FailWithDetails(c, http.StatusConflict, response.ErrActiveClassConflict, activeClass)
		return true
	}

	var slotConflict *model.SlotConflictError
	if errors.As(err, &slotConflict) {
		response.FailWithDetails(c, http.StatusConflict, response.ErrTimetableConflict, slotConflict)
		return true
	}

	var consistency *model.ConsistencyError
	if errors.As(err, &consistency) {
		response.FailWithDetails(c, http.StatusInternalServerError, response.ErrConsistency, consistency)
		return true
	}
	return false
}

func mapDomainError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, service.ErrDepartmentNotFound),
		errors.Is(err, service.ErrTeacherNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrCourseNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrEmptyRoster),
		errors.Is(err, service.ErrInvalidDateWindow):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrInvalidTimeWindow),
		errors.Is(err, service.ErrInvalidDayOfWeek):
		return http.StatusBadRequest, response.ErrInvalidTimeWindow
	case errors.Is(err, service.ErrClassNotActive):
		return http.StatusConflict, response.ErrClassNotActive
	case errors.Is(err, service.ErrClassExpired):
		return http.StatusConflict, response.ErrClassExpired
	case errors.Is(err, service.ErrCascadeIncomplete):
		return http.StatusInternalServerError, response.ErrEnrollmentCascade
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return http.StatusConflict, response.ErrConflict
			case "23503":
				return http.StatusConflict, response.ErrDependencyExists
			}
		}
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// pathID parses a positive integer path parameter; on failure it writes the
// invalid-id response and returns ok=false.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
