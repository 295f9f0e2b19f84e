package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/okarpov/tasktrack/internal/services"
)

type taskForm struct {
	Title       string `form:"title" binding:"required,max=255"`
	Description string `form:"description" binding:"max=2000"`
	Complete    bool   `form:"complete"`
}

func (h *handlerImpl) HandleTaskList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	// Administrators have no personal task list.
	if user.IsAdmin() {
		c.Redirect(http.StatusFound, "/admin-dashboard")
		return
	}

	search := c.Query("search-area")

	tasks, err := h.tasks.ListByOwner(c, user.ID, search)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to list tasks")
		h.renderServerError(c, "error.html", nil)
		return
	}

	count, err := h.tasks.CountIncomplete(c, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to count incomplete tasks")
		h.renderServerError(c, "error.html", nil)
		return
	}

	h.render(c, http.StatusOK, "task_list.html", gin.H{
		"tasks":  tasks,
		"count":  count,
		"search": search,
	})
}

func (h *handlerImpl) HandleTaskDetail(c *gin.Context) {
	user, _ := currentUser(c)

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}

	task, err := h.tasks.GetByID(c, taskID, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to get task")
		h.renderServerError(c, "error.html", nil)
		return
	}

	h.render(c, http.StatusOK, "task_detail.html", gin.H{
		"task": task,
	})
}

func (h *handlerImpl) HandleTaskCreatePage(c *gin.Context) {
	h.render(c, http.StatusOK, "task_form.html", gin.H{
		"action": "/task-create",
	})
}

func (h *handlerImpl) HandleTaskCreate(c *gin.Context) {
	user, _ := currentUser(c)

	var form taskForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind task form")
		h.render(c, http.StatusOK, "task_form.html", gin.H{
			"action":      "/task-create",
			"errors":      formErrors(err),
			"title":       form.Title,
			"description": form.Description,
			"complete":    form.Complete,
		})
		return
	}

	_, err = h.tasks.Create(c, user.ID, services.TaskParams{
		Title:       form.Title,
		Description: form.Description,
		Complete:    form.Complete,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to create task")
		h.renderServerError(c, "task_form.html", gin.H{
			"action":      "/task-create",
			"title":       form.Title,
			"description": form.Description,
			"complete":    form.Complete,
		})
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func (h *handlerImpl) HandleTaskUpdatePage(c *gin.Context) {
	user, _ := currentUser(c)

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}

	task, err := h.tasks.GetByID(c, taskID, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to get task")
		h.renderServerError(c, "task_form.html", nil)
		return
	}

	h.render(c, http.StatusOK, "task_form.html", gin.H{
		"action":      "/task-update/" + strconv.FormatInt(task.ID, 10),
		"title":       task.Title,
		"description": task.Description,
		"complete":    task.Complete,
	})
}

func (h *handlerImpl) HandleTaskUpdate(c *gin.Context) {
	user, _ := currentUser(c)

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}
	action := "/task-update/" + strconv.FormatInt(taskID, 10)

	var form taskForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind task form")
		h.render(c, http.StatusOK, "task_form.html", gin.H{
			"action":      action,
			"errors":      formErrors(err),
			"title":       form.Title,
			"description": form.Description,
			"complete":    form.Complete,
		})
		return
	}

	_, err = h.tasks.Update(c, taskID, user.ID, services.TaskParams{
		Title:       form.Title,
		Description: form.Description,
		Complete:    form.Complete,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update task")
		h.renderServerError(c, "task_form.html", gin.H{
			"action":      action,
			"title":       form.Title,
			"description": form.Description,
			"complete":    form.Complete,
		})
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

// HandleTaskDeletePage renders the confirmation step. The delete itself
// only happens on POST.
func (h *handlerImpl) HandleTaskDeletePage(c *gin.Context) {
	user, _ := currentUser(c)

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}

	task, err := h.tasks.GetByID(c, taskID, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to get task")
		h.renderServerError(c, "error.html", nil)
		return
	}

	h.render(c, http.StatusOK, "task_confirm_delete.html", gin.H{
		"task": task,
	})
}

func (h *handlerImpl) HandleTaskDelete(c *gin.Context) {
	user, _ := currentUser(c)

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}

	err := h.tasks.Delete(c, taskID, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		h.renderServerError(c, "error.html", nil)
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func parseTaskID(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		return 0, false
	}
	return taskID, true
}
