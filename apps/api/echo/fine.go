package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/notify"
)

type fineApi struct {
	svc        *fine.Service
	dispatcher *notify.Dispatcher
}

func registerFineAPI(g *echo.Group, jwt, staff echo.MiddlewareFunc, deps ServerDeps) {
	api := fineApi{svc: deps.FineSvc, dispatcher: deps.Dispatcher}
	admin := adminMiddleware()

	st := "/students/:id/fines"
	g.GET(st, api.query, jwt, staff)
	g.POST(st, api.issue, jwt, staff, admin)
	g.GET(st+"/summary", api.summary, jwt, staff)
	g.GET(st+"/reminder", api.reminder, jwt, staff)

	fg := g.Group("/fines", jwt, staff)
	fg.GET("/:id", api.retrieve)
	fg.POST("/:id/collect", api.collect)
	fg.POST("/:id/waive", api.waive, admin)
	fg.POST("/:id/cancel", api.cancel, admin)
}

// Handlers

func (api *fineApi) query(ctx echo.Context) error {
	var filter fine.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to fine.Filter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	fines, err := api.svc.ListStudentFines(ctx.Request().Context(), ctx.Param("id"), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying fines")
	}
	return ctx.JSON(http.StatusOK, fines)
}

func (api *fineApi) issue(ctx echo.Context) error {
	var data fine.NewFine
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFine")
	}
	f, err := api.svc.IssueFine(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "issuing fine")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *fineApi) summary(ctx echo.Context) error {
	sum, err := api.svc.StudentSummary(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing fines")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *fineApi) reminder(ctx echo.Context) error {
	alert, err := api.dispatcher.FineReminder(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building fine reminder")
	}
	return ctx.JSON(http.StatusOK, alert)
}

func (api *fineApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.GetFine(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting fine")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *fineApi) collect(ctx echo.Context) error {
	var data fine.CollectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CollectRequest")
	}
	userID, err := contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user id")
	}
	f, err := api.svc.CollectFine(ctx.Request().Context(), ctx.Param("id"), data, userID)
	if err != nil {
		return errors.Wrap(err, "collecting fine")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *fineApi) waive(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user id")
	}
	f, err := api.svc.WaiveFine(ctx.Request().Context(), ctx.Param("id"), userID)
	if err != nil {
		return errors.Wrap(err, "waiving fine")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *fineApi) cancel(ctx echo.Context) error {
	var data fine.CancelRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelRequest")
	}
	userID, err := contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user id")
	}
	f, err := api.svc.CancelFine(ctx.Request().Context(), ctx.Param("id"), userID, data.Reason)
	if err != nil {
		return errors.Wrap(err, "cancelling fine")
	}
	return ctx.JSON(http.StatusOK, f)
}
