package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type CourseHandler struct {
	log     *logger.Logger
	courses *store.CourseStore
}

func NewCourseHandler(log *logger.Logger, courses *store.CourseStore) *CourseHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courses: courses}
}

// GET /courses?category=&level=&search=
func (h *CourseHandler) List(c *gin.Context) {
	f := backend.CourseFilter{
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Search:   c.Query("search"),
	}
	list, err := h.courses.FetchCourses(c.Request.Context(), f)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": list})
}

// GET /courses/:id
//
// Opening a course counts as a view. A failed view count does not fail the
// request; its record carries the error.
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if _, err := h.courses.FetchCourse(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.courses.RecordView(c.Request.Context(), id); err != nil {
		h.log.Debug("view not recorded", "course_id", id, "error", err)
	}
	response.RespondOK(c, gin.H{"course": h.courses.Snapshot().Current})
}

// GET /home
//
// Partial failures still answer 200; each list's record says what failed.
func (h *CourseHandler) Home(c *gin.Context) {
	_ = h.courses.LoadHome(c.Request.Context())
	response.RespondOK(c, h.courses.Snapshot())
}

// GET /courses/purchased
func (h *CourseHandler) Purchased(c *gin.Context) {
	list, err := h.courses.FetchPurchased(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": list})
}
