package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/excuse"
	"classtrack/internal/roster"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// fail maps domain errors onto status codes and writes the response.
func (a *API) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrInvalid),
		errors.Is(err, excuse.ErrReasonRequired),
		errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrNotFound),
		errors.Is(err, excuse.ErrNotFound),
		errors.Is(err, attendance.ErrClassNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrForbidden),
		errors.Is(err, excuse.ErrForbidden),
		errors.Is(err, attendance.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, excuse.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrBadToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		a.Log.Errorw("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseDay parses a YYYY-MM-DD query or body value, defaulting to
// today (UTC) when empty.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, s)
}

// parseClock parses an HH:MM value, defaulting to the current UTC
// time of day when empty.
func parseClock(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(clockLayout, s)
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// window parses from/to query params, defaulting to the last 30 days.
func window(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	from := today.AddDate(0, 0, -29)
	to := today
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}
