package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models/reports"
)

func VarianceReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindReportFilter(c)
		if !ok {
			return
		}

		report, err := reports.BuildVarianceReport(c.Request.Context(), filter)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// ExportVarianceReportHandler streams the report in the requested format.
// Supported formats are excel, csv and pdf; excel is the default because the
// back-office staff live in spreadsheets.
func ExportVarianceReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindReportFilter(c)
		if !ok {
			return
		}

		format := strings.ToLower(strings.TrimSpace(c.Query("format")))
		if format == "" {
			format = "excel"
		}

		report, err := reports.BuildVarianceReport(c.Request.Context(), filter)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		stamp := time.Now().Format("20060102-150405")

		switch format {
		case "excel", "xlsx":
			c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="variance-report-%s.xlsx"`, stamp))
			err = reports.ExportExcel(report, c.Writer)
		case "csv":
			c.Header("Content-Type", "text/csv; charset=utf-8")
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="variance-report-%s.csv"`, stamp))
			err = reports.ExportCsv(report, c.Writer)
		case "pdf":
			c.Header("Content-Type", "application/pdf")
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="variance-report-%s.pdf"`, stamp))
			err = reports.ExportPdf(report, c.Writer)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format; use excel, csv or pdf"})
			return
		}

		if err != nil {
			// Headers may already be out; best we can do is log and drop.
			_ = c.Error(err)
		}
	}
}

func bindReportFilter(c *gin.Context) (*models.VarianceFilter, bool) {
	var filter models.VarianceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return nil, false
	}
	if err := filter.Validate(); err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	return &filter, true
}
