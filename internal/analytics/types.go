package analytics

import (
	"time"

	"classtrack/internal/attendance"
)

// Row is one attendance record joined with its student and class,
// the unit every aggregate is computed from.
type Row struct {
	StudentID     string
	StudentName   string
	StudentNumber string
	ClassID       string
	ClassName     string
	Date          time.Time
	Status        attendance.Status
	ScanTime      time.Time
	ArrivalTime   *time.Time
	LateMinutes   int
	Notes         string
}

// DailyTrend is one day in a trend series. Days without records appear
// with zero counts so charts have no gaps.
type DailyTrend struct {
	Date    string  `json:"date"`
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Absent  int     `json:"absent"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Rate    float64 `json:"attendance_rate"`
}

// StudentSummary aggregates one student over a window.
type StudentSummary struct {
	StudentID      string   `json:"student_id"`
	Name           string   `json:"name"`
	StudentNumber  string   `json:"student_number"`
	ClassName      string   `json:"class_name,omitempty"`
	TotalDays      int      `json:"total_days"`
	Present        int      `json:"present"`
	Late           int      `json:"late"`
	Absent         int      `json:"absent"`
	Excused        int      `json:"excused"`
	AttendanceRate float64  `json:"attendance_rate"`
	AvgLateMinutes float64  `json:"avg_late_minutes"`
	RecentPattern  []string `json:"recent_pattern"`
	RiskLevel      string   `json:"risk_level"`
}

// ClassComparison ranks one class against the others.
type ClassComparison struct {
	ClassID        string  `json:"class_id"`
	ClassName      string  `json:"class_name"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	TotalRecords   int     `json:"total_records"`
	Attending      int     `json:"attending"`
	AttendanceRate float64 `json:"attendance_rate"`
	AvgDaily       float64 `json:"avg_daily_attendance"`
}

// WeekdayStat aggregates records by day of week.
type WeekdayStat struct {
	Day     string  `json:"day"`
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Absent  int     `json:"absent"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Rate    float64 `json:"attendance_rate"`
}

// HourStat aggregates late arrivals by scan hour.
type HourStat struct {
	Hour           int     `json:"hour"`
	LateCount      int     `json:"late_count"`
	AvgLateMinutes float64 `json:"avg_late_minutes"`
}

// TimeAnalysis groups the time-based views.
type TimeAnalysis struct {
	ByWeekday  []WeekdayStat `json:"by_weekday"`
	LateByHour []HourStat    `json:"late_arrivals_by_hour"`
}

// StudentFlag is a student surfaced by the insight rules.
type StudentFlag struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	AttendanceRate float64 `json:"attendance_rate"`
	RecentAbsences int     `json:"recent_absences"`
}

// Insights is the automatic read on recent behavior.
type Insights struct {
	AtRisk          []StudentFlag `json:"at_risk_students"`
	Consistent      []StudentFlag `json:"consistent_students"`
	Recommendations []string      `json:"recommendations"`
}

// Report bundles every aggregate for one window.
type Report struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	TotalRecords int               `json:"total_records"`
	OverallRate  float64           `json:"overall_attendance_rate"`
	Trends       []DailyTrend      `json:"trends"`
	Students     []StudentSummary  `json:"students"`
	Classes      []ClassComparison `json:"classes"`
	TimeAnalysis TimeAnalysis      `json:"time_analysis"`
	Insights     Insights          `json:"insights"`
}

// ClassSession is a class on today's dashboard.
type ClassSession struct {
	ClassID   string                    `json:"class_id"`
	ClassName string                    `json:"class_name"`
	StartTime string                    `json:"start_time"`
	EndTime   string                    `json:"end_time"`
	Counts    map[attendance.Status]int `json:"counts,omitempty"`
}

// Activity is one recent record rendered for the dashboard feed.
type Activity struct {
	StudentName string            `json:"student_name"`
	ClassName   string            `json:"class_name"`
	Status      attendance.Status `json:"status"`
	Date        string            `json:"date"`
	ScanTime    string            `json:"scan_time"`
}

// Overview is the dashboard payload.
type Overview struct {
	Date           string         `json:"date"`
	InSession      []ClassSession `json:"classes_in_session"`
	Upcoming       []ClassSession `json:"upcoming_classes"`
	WeeklyTrends   []DailyTrend   `json:"weekly_trends"`
	ThisMonthRate  float64        `json:"this_month_rate"`
	LastMonthRate  float64        `json:"last_month_rate"`
	RecentActivity []Activity     `json:"recent_activity"`
}
