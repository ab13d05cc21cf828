package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/fee"
	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/core/school"
)

const finesNotAppliedWarning = "attendance saved but fines could not be applied, save again to retry"

type attendanceApi struct {
	svc        *attendance.Service
	schoolSvc  *school.Service
	fineSvc    *fine.Service
	feeSvc     *fee.Service
	dispatcher *notify.Dispatcher
	logger     core.Logger
}

func registerAttendanceAPI(g *echo.Group, jwt, staff echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:        deps.AttendanceSvc,
		schoolSvc:  deps.SchoolSvc,
		fineSvc:    deps.FineSvc,
		feeSvc:     deps.FeeSvc,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}

	day := "/classes/:id/attendance/:date"
	g.PUT(day, api.save, jwt, staff)
	g.GET(day, api.sheet, jwt, staff)
	g.GET(day+"/alerts", api.alerts, jwt, staff)
	g.POST(day+"/alerts/email", api.emailAlerts, jwt, staff)

	g.GET("/students/:id/attendance/summary", api.studentSummary, jwt, staff)
}

type (
	SaveAttendanceResponse struct {
		Records []attendance.Record `json:"records"`
		Fines   fine.RulesResult    `json:"fines"`
		Warning string              `json:"warning,omitempty"`
	}

	// SheetRow is one roster line of the attendance sheet, with the student's balances inline.
	SheetRow struct {
		Student school.Student     `json:"student"`
		Record  *attendance.Record `json:"record"`
		Fines   fine.Summary       `json:"fines"`
		Fees    fee.Summary        `json:"fees"`
	}

	AttendanceSheet struct {
		ClassID string     `json:"class_id"`
		Date    string     `json:"date"`
		Marked  bool       `json:"marked"`
		Rows    []SheetRow `json:"rows"`
	}

	EmailAlertsResponse struct {
		Queued int `json:"queued"`
	}
)

// Handlers

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}
	data.ClassID = ctx.Param("id")
	data.Date = ctx.Param("date")

	userID, err := contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user id")
	}

	reqCtx := ctx.Request().Context()
	records, err := api.svc.SaveAttendance(reqCtx, data, userID)
	if err != nil {
		return errors.Wrap(err, "saving attendance")
	}

	data.Clean()
	day, _ := core.ParseDate(data.Date) // validated by SaveAttendance

	resp := SaveAttendanceResponse{Records: records}
	resp.Fines, err = api.fineSvc.ApplyAttendanceRules(reqCtx, data.ClassID, core.Date{Time: day}, records)
	if err != nil {
		// the day is saved; rules are re-applied on the next save
		api.logger.Error("applying attendance rules", err, contextLogUser(ctx))
		resp.Warning = finesNotAppliedWarning
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *attendanceApi) sheet(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	records, err := api.svc.GetAttendance(reqCtx, ctx.Param("id"), ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	roster, err := api.schoolSvc.ActiveRoster(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class roster")
	}

	ids := make([]string, 0, len(roster))
	for _, st := range roster {
		ids = append(ids, st.ID)
	}
	fines, err := api.fineSvc.StudentSummaries(reqCtx, ids...)
	if err != nil {
		return errors.Wrap(err, "summarizing fines")
	}
	fees, err := api.feeSvc.StudentSummaries(reqCtx, ids...)
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}

	byStudent := make(map[string]attendance.Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	sheet := AttendanceSheet{
		ClassID: core.CleanString(ctx.Param("id"), true /* lower */),
		Date:    ctx.Param("date"),
		Marked:  len(records) > 0,
		Rows:    make([]SheetRow, 0, len(roster)),
	}
	for _, st := range roster {
		row := SheetRow{Student: st, Fines: fines[st.ID], Fees: fees[st.ID]}
		if rec, ok := byStudent[st.ID]; ok {
			row.Record = &rec
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) alerts(ctx echo.Context) error {
	alerts, err := api.dispatcher.AttendanceAlerts(ctx.Request().Context(), ctx.Param("id"), ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "building attendance alerts")
	}
	return ctx.JSON(http.StatusOK, alerts)
}

func (api *attendanceApi) emailAlerts(ctx echo.Context) error {
	alerts, err := api.dispatcher.AttendanceAlerts(ctx.Request().Context(), ctx.Param("id"), ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "building attendance alerts")
	}
	return ctx.JSON(http.StatusAccepted, EmailAlertsResponse{Queued: api.dispatcher.EmailAlerts(alerts...)})
}

func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	sum, err := api.svc.StudentSummary(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("from"), ctx.QueryParam("to"))
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, sum)
}
