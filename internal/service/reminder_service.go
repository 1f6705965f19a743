package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"timebudget/internal/clock"
	"timebudget/internal/model"
)

// ReminderService builds human-readable digests for daily notifications.
type ReminderService struct {
	allocations *AllocationService
	summaries   *SummaryService
}

func NewReminderService(allocations *AllocationService, summaries *SummaryService) *ReminderService {
	return &ReminderService{allocations: allocations, summaries: summaries}
}

// DailyDigest renders today's plan for user: every block, the block in progress or next
// up, and the unallocated buffer of the day window.
func (s *ReminderService) DailyDigest(ctx context.Context, user *model.User, now time.Time) (string, error) {
	list, err := s.allocations.List(ctx, user, now)
	if err != nil {
		return "", err
	}
	summary, err := s.summaries.DailySummary(ctx, user, now)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>План на день</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(list) == 0 {
		builder.WriteString("— на сегодня ничего не запланировано\n")
	} else {
		for _, a := range list {
			builder.WriteString(FormatAllocationLine(a))
			builder.WriteByte('\n')
		}
	}

	if next, current := upcoming(list, clock.Of(now)); current {
		builder.WriteString(fmt.Sprintf("\n▶️ Сейчас: %s\n", FormatAllocationLine(*next)))
	} else if next != nil {
		builder.WriteString(fmt.Sprintf("\n⏭ Дальше: %s\n", FormatAllocationLine(*next)))
	}

	builder.WriteString(fmt.Sprintf("\n⏱ Запланировано: %s из %s\n",
		FormatMinutes(summary.AllocatedMinutes), FormatMinutes(summary.WindowMinutes)))
	builder.WriteString(fmt.Sprintf("🫧 Свободно: %s", FormatMinutes(summary.RemainingMinutes)))

	return strings.TrimSpace(builder.String()), nil
}

// upcoming returns the block running at minute now, or else the first block starting after it.
func upcoming(list []model.TimeAllocation, now int) (*model.TimeAllocation, bool) {
	for i := range list {
		start, end := clock.ToMinutes(list[i].StartTime), clock.ToMinutes(list[i].EndTime)
		if start <= now && now < end {
			return &list[i], true
		}
		if start > now {
			return &list[i], false
		}
	}
	return nil, false
}

// FormatAllocationLine renders "09:00–10:30 💼 Label (1 ч 30 мин)" with HTML escaping.
func FormatAllocationLine(a model.TimeAllocation) string {
	info := a.Category.Info()
	return fmt.Sprintf("%s–%s %s %s (%s)",
		a.StartTime, a.EndTime, info.Icon, html.EscapeString(a.DisplayLabel()), FormatMinutes(a.DurationMinutes))
}

// FormatMinutes renders a duration as "2 ч 15 мин", "45 мин" or "3 ч".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0 мин"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d мин", m)
	case m == 0:
		return fmt.Sprintf("%d ч", h)
	default:
		return fmt.Sprintf("%d ч %d мин", h, m)
	}
}
