package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

type profileUpdateResponse struct {
	Profile       student.Profile `json:"profile"`
	IgnoredFields []string        `json:"ignored_fields"`
}

// bindProfileFields reads a JSON object of field names to text values.
func bindProfileFields(ctx echo.Context) (map[string]string, error) {
	raw := make(map[string]string)
	if err := (&echo.DefaultBinder{}).BindBody(ctx, &raw); err != nil {
		return nil, core.NewValidationError(errors.New("expected a JSON object of profile fields"))
	}
	return raw, nil
}

func (api *studentApi) retrieveProfile(ctx echo.Context) error {
	r, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	p, err := api.adapter.GetProfile(ctx.Request().Context(), r.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// upsertProfile writes the non-empty fields of the body; the other fields keep their stored values.
func (api *studentApi) upsertProfile(ctx echo.Context) error {
	r, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	raw, err := bindProfileFields(ctx)
	if err != nil {
		return err
	}

	pu, ignored := student.NewProfileUpdate(raw)
	p := student.Profile{StudentID: r.ID}
	if err = pu.Apply(&p); err != nil {
		return err
	}
	if p, err = api.adapter.UpsertProfile(ctx.Request().Context(), p); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, profileUpdateResponse{Profile: p, IgnoredFields: nonNil(ignored)})
}

// updateProfile writes every field of the body; empty values clear fields.
func (api *studentApi) updateProfile(ctx echo.Context) error {
	r, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	raw, err := bindProfileFields(ctx)
	if err != nil {
		return err
	}

	p, ignored, err := api.adapter.UpdateProfile(ctx.Request().Context(), r.ID, raw)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, profileUpdateResponse{Profile: p, IgnoredFields: nonNil(ignored)})
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
