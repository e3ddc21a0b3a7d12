package taskauth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type TaskControllerRoutes struct {
	Tasks     string
	Task      string
	Dashboard string
}

type TaskController struct {
	Logger Logger
	Tasks  *TaskService
	Routes *TaskControllerRoutes
}

type TaskControllerOption func(*TaskController) *TaskController

func NewTaskController(opts ...TaskControllerOption) *TaskController {
	c := &TaskController{
		Logger: defLogger{},
		Routes: &TaskControllerRoutes{
			Tasks:     "/tasks",
			Task:      "/tasks/:id",
			Dashboard: "/dashboard",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Tasks == nil {
		panic("Missing TaskService in task controller...")
	}

	return c
}

func WithTaskControllerService(tasks *TaskService) TaskControllerOption {
	return func(c *TaskController) *TaskController {
		c.Tasks = tasks
		return c
	}
}

func WithTaskControllerLogger(logger Logger) TaskControllerOption {
	return func(c *TaskController) *TaskController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterTaskRoutes mounts the task endpoints behind the guard.
func RegisterTaskRoutes[T any](app router.Router[T], guard *Guard, opts ...TaskControllerOption) {
	controller := NewTaskController(opts...)
	protected := guard.Protected()

	app.Post(controller.Routes.Tasks, controller.Create, protected).
		SetName("tasks.create")
	app.Get(controller.Routes.Tasks, controller.List, protected).
		SetName("tasks.list")
	app.Get(controller.Routes.Task, controller.Show, protected).
		SetName("tasks.show")
	app.Put(controller.Routes.Task, controller.Update, protected).
		SetName("tasks.update")
	app.Delete(controller.Routes.Task, controller.Delete, protected).
		SetName("tasks.delete")
	app.Get(controller.Routes.Dashboard, controller.Dashboard, protected).
		SetName("tasks.dashboard")
}

// TaskPayload is the create and update body
type TaskPayload struct {
	Name        string     `form:"name" json:"name"`
	Description string     `form:"description" json:"description"`
	Priority    string     `form:"priority" json:"priority"`
	Completed   bool       `form:"status" json:"status"`
	StartDate   *time.Time `form:"start_date" json:"start_date"`
	DueDate     *time.Time `form:"due_date" json:"due_date"`
}

// Validate will validate the payload
func (r TaskPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.Priority, validation.In("low", "medium", "high")),
	)
}

func (r TaskPayload) toTask() *Task {
	return &Task{
		Name:        r.Name,
		Description: r.Description,
		Priority:    r.Priority,
		Completed:   r.Completed,
		StartDate:   r.StartDate,
		DueDate:     r.DueDate,
	}
}

func (t *TaskController) Create(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return t.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success":    false,
			"error":      "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	task, err := t.Tasks.CreateTask(ctx.Context(), userID, payload.toTask())
	if err != nil {
		t.Logger.Error("task create error: %v", err)
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"success": true,
		"task":    task,
	})
}

func (t *TaskController) List(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	page := ctx.QueryInt("page", 1)
	perPage := ctx.QueryInt("per_page", DefaultTasksPerPage)

	records, err := t.Tasks.ListTasks(ctx.Context(), userID, page, perPage)
	if err != nil {
		t.Logger.Error("task list error: %v", err)
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"tasks":   records,
		"page":    page,
	})
}

func (t *TaskController) Show(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	taskID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return t.respondError(ctx, goerrors.New("invalid task id", goerrors.CategoryBadInput))
	}

	task, err := t.Tasks.GetTask(ctx.Context(), userID, taskID)
	if err != nil {
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"task":    task,
	})
}

func (t *TaskController) Update(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	taskID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return t.respondError(ctx, goerrors.New("invalid task id", goerrors.CategoryBadInput))
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return t.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success":    false,
			"error":      "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	task := payload.toTask()
	task.ID = taskID

	updated, err := t.Tasks.UpdateTask(ctx.Context(), userID, task)
	if err != nil {
		t.Logger.Error("task update error: %v", err)
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"task":    updated,
	})
}

func (t *TaskController) Delete(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	taskID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return t.respondError(ctx, goerrors.New("invalid task id", goerrors.CategoryBadInput))
	}

	if err := t.Tasks.DeleteTask(ctx.Context(), userID, taskID); err != nil {
		t.Logger.Error("task delete error: %v", err)
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

func (t *TaskController) Dashboard(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return t.respondError(ctx, errNoAuthenticatedUser())
	}

	summary, err := t.Tasks.Dashboard(ctx.Context(), userID)
	if err != nil {
		t.Logger.Error("dashboard error: %v", err)
		return t.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":   true,
		"dashboard": summary,
	})
}

func (t *TaskController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusForError(richErr)
	return ctx.JSON(status, map[string]any{
		"success": false,
		"error":   richErr.Message,
		"code":    richErr.TextCode,
	})
}

func errNoAuthenticatedUser() error {
	return goerrors.New("no authenticated user", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized)
}
