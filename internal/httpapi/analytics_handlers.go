package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
)

func (a *API) trends(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	trends, err := a.Engine.Trends(c.Request.Context(), auth.TeacherID(c), from, to, c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

func (a *API) studentSummaries(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	students, err := a.Engine.StudentSummaries(c.Request.Context(), auth.TeacherID(c), from, to, c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (a *API) classComparison(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	classes, err := a.Engine.ClassComparison(c.Request.Context(), auth.TeacherID(c), from, to)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (a *API) timeAnalysis(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	ta, err := a.Engine.TimeAnalysis(c.Request.Context(), auth.TeacherID(c), from, to, c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ta)
}

func (a *API) insights(c *gin.Context) {
	out, err := a.Engine.Insights(c.Request.Context(), auth.TeacherID(c), c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) report(c *gin.Context) {
	from, to, err := window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	rep, err := a.Engine.Report(c.Request.Context(), auth.TeacherID(c), from, to, c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (a *API) dashboard(c *gin.Context) {
	ov, err := a.Engine.Overview(c.Request.Context(), auth.TeacherID(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
