package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/export"
	"classtrack/internal/metrics"
	"classtrack/internal/queue"
)

// publishRecord hands an applied record to the worker for tallying.
// Publish failures are logged, never surfaced to the caller.
func (a *API) publishRecord(c *gin.Context, rec attendance.Record) {
	if a.Queue == nil {
		return
	}
	if err := a.Queue.Publish(c.Request.Context(), queue.NewRecordApplied(rec.ID)); err != nil {
		metrics.QueuePublishErrors.Inc()
		a.Log.Warnw("queue publish failed", "record_id", rec.ID, "err", err)
	}
}

func (a *API) scan(c *gin.Context) {
	var req struct {
		StudentNumber string `json:"student_number" binding:"required"`
		Date          string `json:"date"`
		ArrivalTime   string `json:"arrival_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDay(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	arrival, err := parseClock(req.ArrivalTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_time must be HH:MM"})
		return
	}

	student, err := a.Roster.StudentByNumber(c.Request.Context(), req.StudentNumber)
	if err != nil {
		a.fail(c, err)
		return
	}

	rec, applied, err := a.Att.RecordScan(c.Request.Context(), auth.TeacherID(c),
		student.ID, c.Param("id"), day, arrival)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !applied {
		c.JSON(http.StatusOK, gin.H{
			"record":  rec,
			"applied": false,
			"message": fmt.Sprintf("%s is already marked %s", student.Name, rec.Status),
		})
		return
	}

	a.publishRecord(c, rec)
	msg := fmt.Sprintf("%s marked %s", student.Name, rec.Status)
	if rec.LateArrival {
		msg += " (" + attendance.FormatDelta(rec.LateMinutes) + ")"
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "applied": true, "message": msg})
}

func (a *API) markManual(c *gin.Context) {
	var req struct {
		StudentID   string `json:"student_id" binding:"required"`
		Status      string `json:"status" binding:"required"`
		Date        string `json:"date"`
		ArrivalTime string `json:"arrival_time"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDay(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	var arrival *time.Time
	if req.ArrivalTime != "" {
		t, err := time.Parse(clockLayout, req.ArrivalTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_time must be HH:MM"})
			return
		}
		arrival = &t
	}

	rec, err := a.Att.RecordManual(c.Request.Context(), auth.TeacherID(c),
		req.StudentID, c.Param("id"), day, status, arrival, req.Notes)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.publishRecord(c, rec)
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (a *API) sweep(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	_ = c.ShouldBindJSON(&req) // empty body is fine
	day, err := parseDay(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	created, err := a.Att.Sweep(c.Request.Context(), auth.TeacherID(c), c.Param("id"), day)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"absences_created": created})
}

func (a *API) listClassAttendance(c *gin.Context) {
	day, err := parseDay(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if _, err := a.Roster.GetClass(c.Request.Context(), auth.TeacherID(c), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}

	records, err := a.AttRepo.ListClassDate(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		a.fail(c, err)
		return
	}

	byStatus := map[attendance.Status][]attendance.Record{}
	for _, r := range records {
		byStatus[r.Status] = append(byStatus[r.Status], r)
	}
	c.JSON(http.StatusOK, gin.H{
		"records":   records,
		"by_status": byStatus,
		"date":      day.Format(dateLayout),
	})
}

func (a *API) listRecords(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	limit := intQuery(c, "limit", 50)
	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}

	records, total, err := a.AttRepo.ListTeacher(c.Request.Context(), auth.TeacherID(c),
		attendance.ListFilter{
			ClassID: c.Query("class_id"),
			From:    from,
			To:      to,
			Limit:   limit,
			Offset:  (page - 1) * limit,
		})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// editRecord reruns a record through the manual path, so edits follow
// the same rules as any other teacher decision.
func (a *API) editRecord(c *gin.Context) {
	var req struct {
		Status      string `json:"status" binding:"required"`
		ArrivalTime string `json:"arrival_time"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := a.AttRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if existing.TeacherID != auth.TeacherID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "record belongs to another teacher"})
		return
	}

	var arrival *time.Time
	if req.ArrivalTime != "" {
		t, err := time.Parse(clockLayout, req.ArrivalTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_time must be HH:MM"})
			return
		}
		arrival = &t
	}

	rec, err := a.Att.RecordManual(c.Request.Context(), auth.TeacherID(c),
		existing.StudentID, existing.ClassID, existing.Date, status, arrival, req.Notes)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.publishRecord(c, rec)
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (a *API) exportRecords(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	rows, err := a.Records.Records(c.Request.Context(), auth.TeacherID(c), from, to, c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s", from.Format(dateLayout), to.Format(dateLayout))
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		f, err := export.BuildWorkbook(rows)
		if err != nil {
			a.fail(c, err)
			return
		}
		defer f.Close()
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			a.Log.Errorw("xlsx write failed", "err", err)
		}
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := export.WriteCSV(c.Writer, rows); err != nil {
			a.Log.Errorw("csv write failed", "err", err)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}
