package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
	"timebudget/internal/service"
)

const (
	timelineCells = 12
	emptyCell     = "▫️"
)

var weekdays = [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

func formatDate(d time.Time) string {
	return fmt.Sprintf("%s, %s", d.Format("02.01.2006"), weekdays[d.Weekday()])
}

// formatDayView renders the selected date: a coarse bar, the numbered blocks and the buffer.
func formatDayView(date time.Time, timeline model.Timeline, summary *model.DailySummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", formatDate(date)))
	b.WriteString(fmt.Sprintf("🌅 Окно дня: %s–%s\n\n", timeline.Window.Start, timeline.Window.End))

	if len(timeline.Segments) == 0 {
		b.WriteString("Пока пусто. Добавь блок через /add или загрузи шаблон из /templates.\n")
	} else {
		b.WriteString(renderTimelineBar(timeline, timelineCells))
		b.WriteString("\n\n")
		for i, seg := range timeline.Segments {
			b.WriteString(fmt.Sprintf("%d. %s", i+1, service.FormatAllocationLine(seg.Allocation)))
			if !seg.Visible {
				b.WriteString(" <i>(вне окна)</i>")
			}
			if seg.Allocation.ProjectID != nil {
				b.WriteString(fmt.Sprintf("\n    📁 %s", escape(*seg.Allocation.ProjectID)))
			}
			b.WriteByte('\n')
		}
	}

	if summary != nil {
		b.WriteString(fmt.Sprintf("\n⏱ Запланировано: %s из %s\n🫧 Свободно: %s",
			service.FormatMinutes(summary.AllocatedMinutes),
			service.FormatMinutes(summary.WindowMinutes),
			service.FormatMinutes(summary.RemainingMinutes)))
	}
	return strings.TrimSpace(b.String())
}

// renderTimelineBar draws the window as cells; each cell shows the icon of the block
// covering its midpoint.
func renderTimelineBar(timeline model.Timeline, cells int) string {
	var b strings.Builder
	for i := 0; i < cells; i++ {
		mid := (float64(i) + 0.5) / float64(cells) * 100
		icon := emptyCell
		for _, seg := range timeline.Segments {
			if seg.Visible && seg.OffsetPercent <= mid && mid < seg.OffsetPercent+seg.WidthPercent {
				icon = seg.Category.Icon
				break
			}
		}
		b.WriteString(icon)
	}
	return b.String()
}

func formatSummary(summary *model.DailySummary, date time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Итоги за %s</b>\n\n", formatDate(date)))

	if len(summary.ByCategory) == 0 {
		b.WriteString("Нет ни одного блока.\n")
	} else {
		type row struct {
			info    model.CategoryInfo
			minutes int
		}
		rows := make([]row, 0, len(summary.ByCategory))
		for cat, minutes := range summary.ByCategory {
			rows = append(rows, row{info: cat.Info(), minutes: minutes})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].minutes != rows[j].minutes {
				return rows[i].minutes > rows[j].minutes
			}
			return rows[i].info.ID < rows[j].info.ID
		})
		for _, r := range rows {
			share := 0
			if summary.AllocatedMinutes > 0 {
				share = r.minutes * 100 / summary.AllocatedMinutes
			}
			b.WriteString(fmt.Sprintf("%s %s — %s (%d%%)\n", r.info.Icon, r.info.Label, service.FormatMinutes(r.minutes), share))
		}
	}

	b.WriteString(fmt.Sprintf("\n⏱ Всего: %s\n🌅 Окно дня: %s\n🫧 Свободно: %s",
		service.FormatMinutes(summary.AllocatedMinutes),
		service.FormatMinutes(summary.WindowMinutes),
		service.FormatMinutes(summary.RemainingMinutes)))
	return strings.TrimSpace(b.String())
}

func formatCategories(cats []model.CategoryInfo) string {
	var b strings.Builder
	b.WriteString("📂 <b>Категории</b>\n")
	for i, info := range cats {
		b.WriteString(fmt.Sprintf("%d. %s %s — <code>%s</code>\n", i+1, info.Icon, info.Label, info.ID))
	}
	return strings.TrimSpace(b.String())
}

func formatTemplates(templates []model.TimeTemplate) string {
	if len(templates) == 0 {
		return "Шаблонов пока нет. Сохрани текущий день: /savetemplate &lt;название&gt;"
	}
	var b strings.Builder
	b.WriteString("🧩 <b>Шаблоны</b>\n")
	for i, tpl := range templates {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> · %d бл. · %s\n",
			i+1, escape(normalizeTitle(tpl.Name)), len(tpl.Blocks), service.FormatMinutes(tpl.TotalMinutes())))
	}
	b.WriteString("\nЗагрузить: /loadtemplate &lt;n&gt; [дата]. Загрузка заменяет все блоки дня.")
	return strings.TrimSpace(b.String())
}

// describeError turns a core error into a message for the user.
func describeError(err error) string {
	var (
		overlap  *apperr.OverlapError
		interval *apperr.InvalidIntervalError
		notFound *apperr.NotFoundError
		window   *apperr.PreferenceInvariantError
		category *apperr.UnknownCategoryError
		replay   *apperr.ReplayFailedError
	)
	switch {
	case errors.As(err, &replay):
		where := ""
		if replay.Block >= 0 {
			where = fmt.Sprintf(" (блок %d)", replay.Block+1)
		}
		return fmt.Sprintf("⛔ Не удалось загрузить шаблон%s: %s\nДень оставлен без изменений.", where, describeError(replay.Err))
	case errors.As(err, &overlap):
		if overlap.ConflictStart == "" {
			return "⛔ Время пересекается с другим блоком."
		}
		return fmt.Sprintf("⛔ Время пересекается с блоком %s–%s.", overlap.ConflictStart, overlap.ConflictEnd)
	case errors.As(err, &interval):
		return fmt.Sprintf("⛔ Конец (%s) должен быть позже начала (%s).", interval.End, interval.Start)
	case errors.As(err, &notFound):
		if notFound.Kind == "template" {
			return "Шаблон не найден или уже удалён."
		}
		return "Блок не найден или уже удалён."
	case errors.As(err, &window):
		return fmt.Sprintf("⛔ Начало дня (%s) должно быть раньше конца (%s).", window.Start, window.End)
	case errors.As(err, &category):
		return fmt.Sprintf("⛔ Неизвестная категория «%s». Список: /categories", escape(category.Category))
	default:
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
