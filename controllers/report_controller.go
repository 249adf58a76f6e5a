package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
)

const reportDateLayout = "2006-01-02"

// SalesReport handles GET /api/v1/reports/sales?start=&end= (admin). Dates
// are RFC 3339 timestamps or plain YYYY-MM-DD days; a plain end day covers
// the whole day.
func SalesReport(c *gin.Context) {
	start, ok := parseReportTime(c.Query("start"), false)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", "start must be YYYY-MM-DD or RFC 3339")
		return
	}
	end, ok := parseReportTime(c.Query("end"), true)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", "end must be YYYY-MM-DD or RFC 3339")
		return
	}

	report, err := reportService().Sales(c.Request.Context(), middleware.GetIdentity(c), start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func parseReportTime(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	day, err := time.Parse(reportDateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), true
	}
	return day, true
}
