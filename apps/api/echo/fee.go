package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/fee"
)

type feeApi struct {
	svc *fee.Service
}

func registerFeeAPI(g *echo.Group, jwt, staff echo.MiddlewareFunc, deps ServerDeps) {
	api := feeApi{svc: deps.FeeSvc}
	admin := adminMiddleware()

	st := "/students/:id/invoices"
	g.GET(st, api.query, jwt, staff)
	g.POST(st, api.create, jwt, staff, admin)
	g.GET(st+"/summary", api.summary, jwt, staff)

	ig := g.Group("/invoices", jwt, staff)
	ig.GET("/:id", api.retrieve)
	ig.POST("/:id/payments", api.pay)
	ig.POST("/:id/cancel", api.cancel, admin)
}

// Handlers

func (api *feeApi) query(ctx echo.Context) error {
	var filter fee.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to fee.Filter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	invoices, err := api.svc.ListStudentInvoices(ctx.Request().Context(), ctx.Param("id"), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	return ctx.JSON(http.StatusOK, invoices)
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	inv, err := api.svc.CreateInvoice(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *feeApi) summary(ctx echo.Context) error {
	sum, err := api.svc.StudentSummary(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	inv, err := api.svc.GetInvoice(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *feeApi) pay(ctx echo.Context) error {
	var data fee.PaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	inv, err := api.svc.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *feeApi) cancel(ctx echo.Context) error {
	inv, err := api.svc.CancelInvoice(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}
