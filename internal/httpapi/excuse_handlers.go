package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
)

func (a *API) submitExcuse(c *gin.Context) {
	var req struct {
		StudentNumber string  `json:"student_number" binding:"required"`
		ClassID       string  `json:"class_id" binding:"required"`
		AbsenceDate   string  `json:"absence_date"`
		Reason        string  `json:"reason" binding:"required"`
		LetterPath    *string `json:"letter_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDay(req.AbsenceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "absence_date must be YYYY-MM-DD"})
		return
	}

	student, err := a.Roster.StudentByNumber(c.Request.Context(), req.StudentNumber)
	if err != nil {
		a.fail(c, err)
		return
	}

	excuseReq, err := a.Excuses.Submit(c.Request.Context(), student.ID, req.ClassID, day, req.Reason, req.LetterPath)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": excuseReq})
}

func (a *API) listExcuses(c *gin.Context) {
	requests, err := a.Excuses.ListForTeacher(c.Request.Context(), auth.TeacherID(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (a *API) getExcuse(c *gin.Context) {
	req, err := a.Excuses.Get(c.Request.Context(), auth.TeacherID(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (a *API) reviewExcuse(c *gin.Context) {
	var req struct {
		Approve      *bool  `json:"approve" binding:"required"`
		TeacherNotes string `json:"teacher_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := a.Excuses.Review(c.Request.Context(), auth.TeacherID(c), c.Param("id"), *req.Approve, req.TeacherNotes)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": out})
}

func (a *API) expireExcuses(c *gin.Context) {
	n, err := a.Excuses.ExpireStale(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}
