package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"horizon/internal/apperr"
	"horizon/internal/middleware"
	"horizon/internal/model"
	"horizon/internal/service"
	"horizon/pkg/util"
)

// TaskHandler handles organization-scoped task endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	tasks, err := h.tasks.List(c.Request.Context(), org.ID, model.TaskStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", tasks))
}

// Get handles GET /tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid task id", string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	task, err := h.tasks.Get(c.Request.Context(), org.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", task))
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var task model.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	created, err := h.tasks.Create(c.Request.Context(), org.ID, user.ID, &task)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse("Task created", created))
}

// Update handles PUT /tasks/:id.
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid task id", string(apperr.KindValidation)))
		return
	}
	var patch model.Task
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	updated, err := h.tasks.Update(c.Request.Context(), org.ID, id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Task updated", updated))
}

// Delete handles DELETE /tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid task id", string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	if err := h.tasks.Delete(c.Request.Context(), org.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Task deleted", nil))
}
