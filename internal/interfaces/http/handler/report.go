package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	reportapp "github.com/retailpos/backend/internal/application/report"
	"github.com/retailpos/backend/internal/domain/report"
)

// PeriodParams selects the report range. period is daily, monthly (default),
// yearly or custom. custom takes start_date and end_date as YYYY-MM-DD; monthly
// accepts month and year.
type PeriodParams struct {
	Period    string `form:"period"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Month     string `form:"month"`
	Year      int    `form:"year"`
}

func (p PeriodParams) query() report.PeriodQuery {
	return report.PeriodQuery(p)
}

// ForecastParams tunes the demand forecast. Zero means the configured default.
type ForecastParams struct {
	MonthsBack int `form:"months_back"`
	TopN       int `form:"top_n"`
}

// ShopReportParams combines both parameter sets
type ShopReportParams struct {
	PeriodParams
	ForecastParams
}

func (p ShopReportParams) query() reportapp.ShopReportQuery {
	return reportapp.ShopReportQuery{
		Period:     p.PeriodParams.query(),
		MonthsBack: p.MonthsBack,
		TopN:       p.TopN,
	}
}

// ReportHandler serves P&L, forecast and combined shop reports
type ReportHandler struct {
	BaseHandler
	reports *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ProfitLoss handles GET /reports/profit-loss
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var params PeriodParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BindError(c, err)
		return
	}

	pl, err := h.reports.BuildPLReport(c.Request.Context(), shopID, params.query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pl)
}

// Forecast handles GET /reports/forecast
func (h *ReportHandler) Forecast(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var params ForecastParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BindError(c, err)
		return
	}

	forecast, err := h.reports.ForecastDemand(c.Request.Context(), shopID, params.MonthsBack, params.TopN)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// ShopReport handles GET /reports/shop
func (h *ReportHandler) ShopReport(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var params ShopReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BindError(c, err)
		return
	}

	shopReport, err := h.reports.BuildShopReport(c.Request.Context(), shopID, params.query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shopReport)
}

// ExportShopReport handles GET /reports/shop/export and streams the rendered
// workbook as an attachment.
func (h *ReportHandler) ExportShopReport(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var params ShopReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BindError(c, err)
		return
	}

	export, err := h.reports.ExportShopReport(c.Request.Context(), shopID, params.query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Content)
}
