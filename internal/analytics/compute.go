package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"classtrack/internal/attendance"
)

const dateLayout = "2006-01-02"

// rate is the attendance percentage: attending over total, one decimal,
// zero when there is nothing to measure.
func rate(attending, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(attending) / float64(total) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

type statusCounts struct {
	present, late, absent, excused int
}

func (c *statusCounts) add(s attendance.Status) {
	switch s {
	case attendance.StatusPresent:
		c.present++
	case attendance.StatusLate:
		c.late++
	case attendance.StatusAbsent:
		c.absent++
	case attendance.StatusExcused:
		c.excused++
	}
}

func (c statusCounts) total() int {
	return c.present + c.late + c.absent + c.excused
}

func (c statusCounts) attending() int {
	return c.present + c.late
}

// trendSeries buckets rows by day and emits one entry per calendar day
// from from to to inclusive, zero-filled where no records exist.
func trendSeries(rows []Row, from, to time.Time) []DailyTrend {
	byDay := map[string]*statusCounts{}
	for _, r := range rows {
		day := r.Date.Format(dateLayout)
		c, ok := byDay[day]
		if !ok {
			c = &statusCounts{}
			byDay[day] = c
		}
		c.add(r.Status)
	}

	var out []DailyTrend
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := d.Format(dateLayout)
		c := statusCounts{}
		if found, ok := byDay[day]; ok {
			c = *found
		}
		out = append(out, DailyTrend{
			Date:    day,
			Present: c.present,
			Late:    c.late,
			Absent:  c.absent,
			Excused: c.excused,
			Total:   c.total(),
			Rate:    rate(c.attending(), c.total()),
		})
	}
	return out
}

// studentSummaries aggregates per student over the roster, worst
// attendance first. Students without records in the window still appear
// with zeros (rate 0), which is what puts them at the top of the risk
// report. The recent pattern covers the last 7 calendar days before to.
func studentSummaries(rows []Row, students []StudentMeta, to time.Time) []StudentSummary {
	type acc struct {
		summary StudentSummary
		lateSum int
		byDate  []Row
	}
	byStudent := map[string]*acc{}
	order := []string{}

	for _, st := range students {
		byStudent[st.ID] = &acc{summary: StudentSummary{
			StudentID:     st.ID,
			Name:          st.Name,
			StudentNumber: st.StudentNumber,
			ClassName:     st.ClassName,
		}}
		order = append(order, st.ID)
	}

	for _, r := range rows {
		a, ok := byStudent[r.StudentID]
		if !ok {
			a = &acc{summary: StudentSummary{
				StudentID:     r.StudentID,
				Name:          r.StudentName,
				StudentNumber: r.StudentNumber,
				ClassName:     r.ClassName,
			}}
			byStudent[r.StudentID] = a
			order = append(order, r.StudentID)
		}
		s := &a.summary
		s.TotalDays++
		switch r.Status {
		case attendance.StatusPresent:
			s.Present++
		case attendance.StatusLate:
			s.Late++
			a.lateSum += r.LateMinutes
		case attendance.StatusAbsent:
			s.Absent++
		case attendance.StatusExcused:
			s.Excused++
		}
		a.byDate = append(a.byDate, r)
	}

	recentCutoff := to.AddDate(0, 0, -7)
	out := make([]StudentSummary, 0, len(order))
	for _, id := range order {
		a := byStudent[id]
		s := a.summary
		s.AttendanceRate = rate(s.Present+s.Late, s.TotalDays)
		if s.Late > 0 {
			s.AvgLateMinutes = round1(float64(a.lateSum) / float64(s.Late))
		}
		sort.SliceStable(a.byDate, func(i, j int) bool {
			return a.byDate[i].Date.Before(a.byDate[j].Date)
		})
		for _, r := range a.byDate {
			if r.Date.Before(recentCutoff) {
				continue
			}
			s.RecentPattern = append(s.RecentPattern, string(r.Status))
		}
		s.RiskLevel = riskLevel(s.AttendanceRate, s.Absent, s.Late)
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AttendanceRate < out[j].AttendanceRate
	})
	return out
}

func riskLevel(rate float64, absences, lates int) string {
	switch {
	case rate < 70 || absences > 5:
		return "high"
	case rate < 85 || absences > 3 || lates > 5:
		return "medium"
	default:
		return "low"
	}
}

// classComparison ranks classes by attendance rate, best first.
// Classes with no records in the window are left out.
func classComparison(rows []Row, classes []ClassMeta) []ClassComparison {
	type acc struct {
		counts    statusCounts
		attending map[string]int // date -> attending count
	}
	byClass := map[string]*acc{}
	for _, r := range rows {
		a, ok := byClass[r.ClassID]
		if !ok {
			a = &acc{attending: map[string]int{}}
			byClass[r.ClassID] = a
		}
		a.counts.add(r.Status)
		if r.Status.Attending() {
			a.attending[r.Date.Format(dateLayout)]++
		}
	}

	var out []ClassComparison
	for _, c := range classes {
		a, ok := byClass[c.ID]
		if !ok || a.counts.total() == 0 {
			continue
		}
		avgDaily := 0.0
		if len(a.attending) > 0 {
			sum := 0
			for _, n := range a.attending {
				sum += n
			}
			avgDaily = round1(float64(sum) / float64(len(a.attending)))
		}
		out = append(out, ClassComparison{
			ClassID:        c.ID,
			ClassName:      c.Name,
			StartTime:      c.StartTime.Format("15:04"),
			EndTime:        c.EndTime.Format("15:04"),
			TotalRecords:   a.counts.total(),
			Attending:      a.counts.attending(),
			AttendanceRate: rate(a.counts.attending(), a.counts.total()),
			AvgDaily:       avgDaily,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AttendanceRate > out[j].AttendanceRate
	})
	return out
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// timeAnalysis breaks records down by weekday and late arrivals by
// scan hour, busiest late hour first.
func timeAnalysis(rows []Row) TimeAnalysis {
	byDay := map[time.Weekday]*statusCounts{}
	type hourAcc struct {
		count, minutes int
	}
	byHour := map[int]*hourAcc{}

	for _, r := range rows {
		wd := r.Date.Weekday()
		c, ok := byDay[wd]
		if !ok {
			c = &statusCounts{}
			byDay[wd] = c
		}
		c.add(r.Status)

		if r.Status == attendance.StatusLate {
			h := r.ScanTime.Hour()
			a, ok := byHour[h]
			if !ok {
				a = &hourAcc{}
				byHour[h] = a
			}
			a.count++
			a.minutes += r.LateMinutes
		}
	}

	var ta TimeAnalysis
	for _, wd := range weekdayOrder {
		c, ok := byDay[wd]
		if !ok || c.total() == 0 {
			continue
		}
		ta.ByWeekday = append(ta.ByWeekday, WeekdayStat{
			Day:     wd.String(),
			Present: c.present,
			Late:    c.late,
			Absent:  c.absent,
			Excused: c.excused,
			Total:   c.total(),
			Rate:    rate(c.attending(), c.total()),
		})
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		a := byHour[h]
		ta.LateByHour = append(ta.LateByHour, HourStat{
			Hour:           h,
			LateCount:      a.count,
			AvgLateMinutes: round1(float64(a.minutes) / float64(a.count)),
		})
	}
	sort.SliceStable(ta.LateByHour, func(i, j int) bool {
		return ta.LateByHour[i].LateCount > ta.LateByHour[j].LateCount
	})
	return ta
}

// insights flags students from their overall rate and the last five
// entries of their recent pattern.
func insights(summaries []StudentSummary) Insights {
	var out Insights
	for _, s := range summaries {
		if len(s.RecentPattern) < 5 {
			continue
		}
		last5 := s.RecentPattern[len(s.RecentPattern)-5:]
		absences := 0
		for _, st := range last5 {
			if st == string(attendance.StatusAbsent) {
				absences++
			}
		}
		flag := StudentFlag{
			StudentID:      s.StudentID,
			Name:           s.Name,
			AttendanceRate: s.AttendanceRate,
			RecentAbsences: absences,
		}
		switch {
		case s.AttendanceRate < 75 || absences >= 3:
			out.AtRisk = append(out.AtRisk, flag)
		case s.AttendanceRate > 90 && absences == 0:
			out.Consistent = append(out.Consistent, flag)
		}
	}

	if len(out.AtRisk) > 0 {
		out.Recommendations = append(out.Recommendations,
			fmt.Sprintf("%d students need attention for poor attendance", len(out.AtRisk)))
	}
	if len(summaries) > 0 && float64(len(out.Consistent)) > float64(len(summaries))*0.8 {
		out.Recommendations = append(out.Recommendations,
			"Excellent overall class attendance! Keep up the good work.")
	}
	return out
}
