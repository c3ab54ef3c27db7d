package echoapi

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage"
)

type studentApi struct {
	roster  *student.Roster
	adapter *storage.Adapter
	logger  core.Logger
	conf    *core.Config

	// serializes mutations and the Save that follows them
	writeMu sync.Mutex
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := &studentApi{
		roster:  deps.Roster,
		adapter: deps.Adapter,
		logger:  deps.Logger,
		conf:    deps.Conf,
	}

	g.GET("/status", api.status)
	g.GET("/statistics", api.statistics)

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail endpoints
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)

	sg.GET("/:id/profile", api.retrieveProfile)
	sg.PUT("/:id/profile", api.upsertProfile)
	sg.PATCH("/:id/profile", api.updateProfile)
}

// StudentResponse is a Record with its derived values.
type StudentResponse struct {
	student.Record
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Grade   string  `json:"grade"`
}

func (api *studentApi) toResponse(r student.Record) StudentResponse {
	return StudentResponse{Record: r, Total: r.Total(), Average: r.Average(), Grade: r.Grade(api.roster.Scale())}
}

func (api *studentApi) toResponses(records []student.Record) []StudentResponse {
	resp := make([]StudentResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, api.toResponse(r))
	}
	return resp
}

// mutate applies `fn` to the roster and saves it, one call at a time.
func (api *studentApi) mutate(ctx echo.Context, fn func() error) error {
	api.writeMu.Lock()
	defer api.writeMu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	if err := api.adapter.Save(ctx.Request().Context(), api.roster.List()); err != nil {
		return errors.Wrap(err, "saving students")
	}
	return nil
}

func (api *studentApi) getStudent(ctx echo.Context) (student.Record, error) {
	r, ok := api.roster.Get(core.CleanString(ctx.Param("id")))
	if !ok {
		return student.Record{}, student.ErrNotFound
	}
	return r, nil
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	records := api.roster.List()
	if search := ctx.QueryParams(); search.Has("search") {
		records = api.roster.Search(search.Get("search"))
	}
	return ctx.JSON(http.StatusOK, api.toResponses(records))
}

func (api *studentApi) create(ctx echo.Context) error {
	var form student.RecordForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to RecordForm")
	}
	if err := form.Validate(); err != nil {
		return err
	}

	rec := form.Record()
	err := api.mutate(ctx, func() error {
		if _, exists := api.roster.Get(rec.ID); exists {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student ID already exists"})
		}
		api.roster.Upsert(rec)
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.toResponse(rec))
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	r, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.toResponse(r))
}

// update fully replaces a student, creating it if needed.
func (api *studentApi) update(ctx echo.Context) error {
	var form student.RecordForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to RecordForm")
	}
	form.ID = ctx.Param("id")
	if err := form.Validate(); err != nil {
		return err
	}

	rec := form.Record()
	if err := api.mutate(ctx, func() error { api.roster.Upsert(rec); return nil }); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.toResponse(rec))
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id := core.CleanString(ctx.Param("id"))
	err := api.mutate(ctx, func() error {
		if !api.roster.Delete(id) {
			return student.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) statistics(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.roster.Statistics())
}

type statusResponse struct {
	Mode     string `json:"mode"`
	DataPath string `json:"data_path,omitempty"`
	Students int    `json:"students"`
	Build    string `json:"build"`
}

func (api *studentApi) status(ctx echo.Context) error {
	resp := statusResponse{
		Mode:     api.adapter.Mode().String(),
		Students: api.roster.Count(),
		Build:    api.conf.Build,
	}
	if api.adapter.Mode() == storage.ModeFileFallback {
		resp.DataPath = api.adapter.FilePath()
	}
	return ctx.JSON(http.StatusOK, resp)
}
