package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classtrack/internal/analytics"
	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/excuse"
	"classtrack/internal/metrics"
	"classtrack/internal/queue"
	"classtrack/internal/roster"
	"classtrack/internal/upload"
)

// API wires the services to their HTTP routes.
type API struct {
	Log      *zap.SugaredLogger
	Auth     *auth.Service
	Roster   *roster.Service
	Att      *attendance.Service
	AttRepo  *attendance.Repository
	Excuses  *excuse.Service
	Engine   *analytics.Engine
	Records  *analytics.Repository
	Uploader *upload.Client // nil when not configured
	Queue    queue.Queue

	JWTSigningKey string
	JWTIssuer     string
	Healthy       func(c *gin.Context) (db, redis bool)
}

// RegisterRoutes mounts every endpoint on the router.
func (a *API) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", a.healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/register", a.register)
	v1.POST("/auth/login", a.login)
	v1.POST("/auth/refresh", a.refresh)
	v1.POST("/auth/reset-password", a.resetPassword)

	// Students submit excuses without a teacher session.
	v1.POST("/excuses", a.submitExcuse)
	v1.POST("/uploads", a.uploadImage)

	t := v1.Group("", auth.TeacherAuth(a.JWTSigningKey, a.JWTIssuer))

	t.GET("/classes", a.listClasses)
	t.POST("/classes", a.createClass)
	t.PUT("/classes/:id", a.updateClass)
	t.DELETE("/classes/:id", a.deleteClass)
	t.GET("/classes/:id/students", a.listClassStudents)
	t.GET("/classes/:id/attendance", a.listClassAttendance)
	t.POST("/classes/:id/scan", a.scan)
	t.POST("/classes/:id/mark", a.markManual)
	t.POST("/classes/:id/sweep", a.sweep)

	t.GET("/students", a.listStudents)
	t.POST("/students", a.createStudent)
	t.PUT("/students/:id", a.updateStudent)
	t.DELETE("/students/:id", a.deleteStudent)
	t.POST("/students/:id/photo", a.setStudentPhoto)
	t.DELETE("/students/:id/photo", a.clearStudentPhoto)

	t.GET("/records", a.listRecords)
	t.PUT("/records/:id", a.editRecord)
	t.GET("/records/export", a.exportRecords)

	t.GET("/excuses", a.listExcuses)
	t.GET("/excuses/:id", a.getExcuse)
	t.POST("/excuses/:id/review", a.reviewExcuse)
	t.POST("/excuses/expire", a.expireExcuses)

	t.GET("/analytics/trends", a.trends)
	t.GET("/analytics/students", a.studentSummaries)
	t.GET("/analytics/classes", a.classComparison)
	t.GET("/analytics/time", a.timeAnalysis)
	t.GET("/analytics/insights", a.insights)
	t.GET("/analytics/report", a.report)

	t.GET("/dashboard", a.dashboard)
}

func (a *API) healthz(c *gin.Context) {
	db, rds := true, true
	if a.Healthy != nil {
		db, rds = a.Healthy(c)
	}
	status := http.StatusOK
	if !db || !rds {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": db, "redis": rds})
}

// CORS middleware for browser requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders sets the standard hardening headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
