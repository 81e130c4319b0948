package analytics

import (
	"context"
	"time"

	"classtrack/internal/attendance"
)

// Source is the data access the engine needs.
type Source interface {
	Records(ctx context.Context, teacherID string, from, to time.Time, classID string) ([]Row, error)
	Students(ctx context.Context, teacherID, classID string) ([]StudentMeta, error)
	Classes(ctx context.Context, teacherID string) ([]ClassMeta, error)
	RecentActivity(ctx context.Context, teacherID string, limit int) ([]Activity, error)
}

// CountSource reads live per-class tallies; nil is tolerated.
type CountSource interface {
	Counts(ctx context.Context, classID string, day time.Time) (map[attendance.Status]int, error)
}

// Engine computes the read-side aggregates. All computation happens in
// memory over one windowed query so every view agrees on its inputs.
type Engine struct {
	source Source
	counts CountSource
	now    func() time.Time
}

func NewEngine(source Source, counts CountSource) *Engine {
	return &Engine{source: source, counts: counts, now: time.Now}
}

func (e *Engine) Trends(ctx context.Context, teacherID string, from, to time.Time, classID string) ([]DailyTrend, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, classID)
	if err != nil {
		return nil, err
	}
	return trendSeries(rows, from, to), nil
}

func (e *Engine) StudentSummaries(ctx context.Context, teacherID string, from, to time.Time, classID string) ([]StudentSummary, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, classID)
	if err != nil {
		return nil, err
	}
	students, err := e.source.Students(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	return studentSummaries(rows, students, to), nil
}

func (e *Engine) ClassComparison(ctx context.Context, teacherID string, from, to time.Time) ([]ClassComparison, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, "")
	if err != nil {
		return nil, err
	}
	classes, err := e.source.Classes(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return classComparison(rows, classes), nil
}

func (e *Engine) TimeAnalysis(ctx context.Context, teacherID string, from, to time.Time, classID string) (TimeAnalysis, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, classID)
	if err != nil {
		return TimeAnalysis{}, err
	}
	return timeAnalysis(rows), nil
}

// Insights looks at the last 60 days regardless of the caller's window;
// the flag rules are tuned to recent behavior.
func (e *Engine) Insights(ctx context.Context, teacherID, classID string) (Insights, error) {
	to := e.now().UTC()
	from := to.AddDate(0, 0, -60)
	rows, err := e.source.Records(ctx, teacherID, from, to, classID)
	if err != nil {
		return Insights{}, err
	}
	students, err := e.source.Students(ctx, teacherID, classID)
	if err != nil {
		return Insights{}, err
	}
	return insights(studentSummaries(rows, students, to)), nil
}

// Report assembles every aggregate over one window.
func (e *Engine) Report(ctx context.Context, teacherID string, from, to time.Time, classID string) (Report, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, classID)
	if err != nil {
		return Report{}, err
	}
	students, err := e.source.Students(ctx, teacherID, classID)
	if err != nil {
		return Report{}, err
	}
	classes, err := e.source.Classes(ctx, teacherID)
	if err != nil {
		return Report{}, err
	}

	attending := 0
	for _, r := range rows {
		if r.Status.Attending() {
			attending++
		}
	}
	summaries := studentSummaries(rows, students, to)

	return Report{
		From:         from.Format(dateLayout),
		To:           to.Format(dateLayout),
		TotalRecords: len(rows),
		OverallRate:  rate(attending, len(rows)),
		Trends:       trendSeries(rows, from, to),
		Students:     summaries,
		Classes:      classComparison(rows, classes),
		TimeAnalysis: timeAnalysis(rows),
		Insights:     insights(summaries),
	}, nil
}

// Overview builds the dashboard: today's sessions with live tallies,
// the last week of trends and a month-over-month rate comparison.
func (e *Engine) Overview(ctx context.Context, teacherID string) (Overview, error) {
	now := e.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	classes, err := e.source.Classes(ctx, teacherID)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{Date: today.Format(dateLayout)}
	tod := time.Date(0, 1, 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
	for _, c := range classes {
		start := time.Date(0, 1, 1, c.StartTime.Hour(), c.StartTime.Minute(), 0, 0, time.UTC)
		end := time.Date(0, 1, 1, c.EndTime.Hour(), c.EndTime.Minute(), 0, 0, time.UTC)
		session := ClassSession{
			ClassID:   c.ID,
			ClassName: c.Name,
			StartTime: c.StartTime.Format("15:04"),
			EndTime:   c.EndTime.Format("15:04"),
		}
		switch {
		case !tod.Before(start) && tod.Before(end):
			if e.counts != nil {
				if counts, err := e.counts.Counts(ctx, c.ID, today); err == nil {
					session.Counts = counts
				}
			}
			ov.InSession = append(ov.InSession, session)
		case tod.Before(start):
			ov.Upcoming = append(ov.Upcoming, session)
		}
	}

	weekAgo := today.AddDate(0, 0, -6)
	weekRows, err := e.source.Records(ctx, teacherID, weekAgo, today, "")
	if err != nil {
		return Overview{}, err
	}
	ov.WeeklyTrends = trendSeries(weekRows, weekAgo, today)

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	ov.ThisMonthRate, err = e.windowRate(ctx, teacherID, thisMonth, today)
	if err != nil {
		return Overview{}, err
	}
	ov.LastMonthRate, err = e.windowRate(ctx, teacherID, lastMonth, thisMonth.AddDate(0, 0, -1))
	if err != nil {
		return Overview{}, err
	}

	ov.RecentActivity, err = e.source.RecentActivity(ctx, teacherID, 10)
	if err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func (e *Engine) windowRate(ctx context.Context, teacherID string, from, to time.Time) (float64, error) {
	rows, err := e.source.Records(ctx, teacherID, from, to, "")
	if err != nil {
		return 0, err
	}
	attending := 0
	for _, r := range rows {
		if r.Status.Attending() {
			attending++
		}
	}
	return rate(attending, len(rows)), nil
}
