package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
)

type classPayload struct {
	Name      string `json:"name" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

func (p classPayload) times() (time.Time, time.Time, error) {
	start, err := time.Parse(clockLayout, p.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(clockLayout, p.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (a *API) listClasses(c *gin.Context) {
	classes, err := a.Roster.ListClasses(c.Request.Context(), auth.TeacherID(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (a *API) createClass(c *gin.Context) {
	var req classPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.times()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "times must be HH:MM"})
		return
	}

	class, err := a.Roster.CreateClass(c.Request.Context(), auth.TeacherID(c), req.Name, start, end)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (a *API) updateClass(c *gin.Context) {
	var req classPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.times()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "times must be HH:MM"})
		return
	}

	class, err := a.Roster.UpdateClass(c.Request.Context(), auth.TeacherID(c), c.Param("id"), req.Name, start, end)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (a *API) deleteClass(c *gin.Context) {
	if err := a.Roster.DeleteClass(c.Request.Context(), auth.TeacherID(c), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (a *API) listClassStudents(c *gin.Context) {
	// Ownership check rides on GetClass.
	if _, err := a.Roster.GetClass(c.Request.Context(), auth.TeacherID(c), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	students, err := a.Roster.ListStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (a *API) listStudents(c *gin.Context) {
	students, err := a.Roster.ListStudents(c.Request.Context(), c.Query("class_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

type studentPayload struct {
	Name          string  `json:"name" binding:"required"`
	StudentNumber string  `json:"student_number" binding:"required"`
	ClassID       *string `json:"class_id"`
}

func (a *API) createStudent(c *gin.Context) {
	var req studentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := a.Roster.CreateStudent(c.Request.Context(), req.Name, req.StudentNumber, req.ClassID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (a *API) updateStudent(c *gin.Context) {
	var req studentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := a.Roster.UpdateStudent(c.Request.Context(), c.Param("id"), req.Name, req.StudentNumber, req.ClassID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *API) deleteStudent(c *gin.Context) {
	if err := a.Roster.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (a *API) setStudentPhoto(c *gin.Context) {
	if a.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	result, err := a.Uploader.UploadBytes(data, header.Filename)
	if err != nil {
		a.Log.Errorw("photo upload failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	st, err := a.Roster.SetStudentPhoto(c.Request.Context(), c.Param("id"), result.SecureURL)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *API) clearStudentPhoto(c *gin.Context) {
	st, err := a.Roster.SetStudentPhoto(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// uploadImage accepts a base64 data URL or a multipart file and
// returns the public URL, e.g. for excuse letters.
func (a *API) uploadImage(c *gin.Context) {
	if a.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		res, err := a.Uploader.UploadBytes(data, header.Filename)
		if err != nil {
			a.Log.Errorw("upload failed", "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": res.SecureURL, "public_id": res.PublicID, "bytes": res.Bytes})
		return
	}

	var body struct {
		Data string `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide a file or {\"data\": \"<base64 data URL>\"}"})
		return
	}
	res, err := a.Uploader.UploadBase64(body.Data)
	if err != nil {
		a.Log.Errorw("upload failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.SecureURL, "public_id": res.PublicID, "bytes": res.Bytes})
}
