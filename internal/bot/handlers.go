package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"timebudget/internal/apperr"
	"timebudget/internal/clock"
	"timebudget/internal/model"
	"timebudget/internal/service"
)

const helpText = "ℹ️ <b>Подсказки</b>\n" +
	"• /day [дата] — план на день (сегодня, завтра, 2025-05-12 или 12.05.2025)\n" +
	"• /add — добавить блок пошагово\n" +
	"• /edit &lt;n&gt; поле=значение — изменить блок (start, end, category, label, project)\n" +
	"• /del &lt;n&gt; — удалить блок\n" +
	"• /summary [дата] — итоги по категориям\n" +
	"• /window [ЧЧ:ММ ЧЧ:ММ] — окно дня\n" +
	"• /categories — список категорий\n" +
	"• /savetemplate &lt;название&gt; — сохранить день как шаблон\n" +
	"• /templates — шаблоны\n" +
	"• /loadtemplate &lt;n&gt; [дата] — применить шаблон (заменяет все блоки дня)\n" +
	"• /deltemplate &lt;n&gt; — удалить шаблон\n" +
	"• /report — план на сегодня\n" +
	"• /cancel — отменить текущий ввод\n\n" +
	"Номер &lt;n&gt; — позиция в последнем показанном списке."

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я помогу распределить время дня по блокам.</b>\n\n"+
			"Начни с /day, добавь блок через /add, а готовый день сохрани шаблоном.\n\n%s",
		escape(name), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	date, err := parseDateArg(args, time.Now(), b.selectedDate(msg.From.ID))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Не могу распознать дату. Пример: <code>/day 2025-05-12</code> или <code>/day завтра</code>.")
	}
	b.setSelectedDate(msg.From.ID, date)
	return b.sendDayView(ctx, msg.Chat.ID, user, date)
}

func (b *Bot) sendDayView(ctx context.Context, chatID int64, user *model.User, date time.Time) error {
	list, err := b.svc.Allocations.List(ctx, user, date)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}
	window, err := b.svc.Preferences.Window(ctx, user)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}
	summary, err := b.svc.Summaries.DailySummary(ctx, user, date)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}

	text := formatDayView(date, service.BuildTimeline(window, list), summary)
	return b.sendWithReplyMarkup(chatID, text, dayKeyboard(list))
}

func (b *Bot) startAddConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	date := b.selectedDate(msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageCategory, date: date})
	slog.Debug("start add conversation", "from", msg.From.ID, "date", clock.DateKey(date))
	return b.sendWithReplyMarkup(msg.Chat.ID,
		fmt.Sprintf("🆕 Новый блок на %s.\n<b>Шаг 1:</b> выбери категорию.", formatDate(date)),
		categoryKeyboard(b.svc.Categories.List()))
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageCategory:
		cats := b.svc.Categories.List()
		category, err := b.svc.Categories.Parse(stripCategoryIcon(text, cats))
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, describeError(err), categoryKeyboard(cats))
		}
		state.input.Category = category
		state.stage = stageStart
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ <b>Шаг 2:</b> время начала, например <code>09:00</code>.", cancelKeyboard())
	case stageStart:
		start, err := clock.Normalize(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать время. Формат: <code>09:30</code>.", cancelKeyboard())
		}
		state.input.StartTime = start
		state.stage = stageEnd
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏁 <b>Шаг 3:</b> время окончания, например <code>10:30</code>.", cancelKeyboard())
	case stageEnd:
		end, err := clock.Normalize(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать время. Формат: <code>10:30</code>.", cancelKeyboard())
		}
		if end <= state.input.StartTime {
			return b.sendWithReplyMarkup(msg.Chat.ID,
				fmt.Sprintf("Окончание должно быть позже начала (%s). Введи другое время.", state.input.StartTime), cancelKeyboard())
		}
		state.input.EndTime = end
		state.stage = stageLabel
		return b.sendWithReplyMarkup(msg.Chat.ID,
			fmt.Sprintf("✏️ <b>Шаг 4:</b> название блока (или «Пропустить», тогда будет «%s»).", state.input.Category.Info().Label),
			skipKeyboard())
	case stageLabel:
		if !isSkipInput(text) {
			label := text
			state.input.Label = &label
		}
		return b.finishAddConversation(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /add.")
	}
}

func (b *Bot) finishAddConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	allocation, err := b.svc.Allocations.Create(ctx, user, state.date, state.input)
	if err != nil {
		if errors.Is(err, apperr.ErrOverlap) {
			state.stage = stageStart
			state.input.Label = nil
			return b.sendWithReplyMarkup(msg.Chat.ID,
				describeError(err)+"\nУкажи другое время начала.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	b.clearConversation(msg.From.ID)

	if err := b.sendText(msg.Chat.ID, "✅ Блок добавлен: "+service.FormatAllocationLine(*allocation)); err != nil {
		return err
	}
	return b.sendDayView(ctx, msg.Chat.ID, user, state.date)
}

// resolveAllocation maps a listing position on the selected date to the current row.
func (b *Bot) resolveAllocation(ctx context.Context, user *model.User, userID int64, raw string) (*model.TimeAllocation, string) {
	list, err := b.svc.Allocations.List(ctx, user, b.selectedDate(userID))
	if err != nil {
		return nil, describeError(err)
	}
	idx, err := parseIndex(raw, len(list))
	if err != nil {
		return nil, fmt.Sprintf("Не могу найти блок: %s. Посмотри номера в /day.", escape(err.Error()))
	}
	return &list[idx], ""
}

func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message, args string) error {
	ref, fields, err := parseEditArgs(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("%s.\nПример: <code>/edit 2 end=11:30 label=Созвон</code>", escape(err.Error())))
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	target, problem := b.resolveAllocation(ctx, user, msg.From.ID, ref)
	if target == nil {
		return b.sendText(msg.Chat.ID, problem)
	}

	patch, err := b.buildPatch(fields)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	if patch.Empty() {
		return b.sendText(msg.Chat.ID, "Нечего менять. Пример: <code>/edit 2 end=11:30</code>")
	}

	updated, err := b.svc.Allocations.Update(ctx, user, target.ID, patch)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	if err := b.sendText(msg.Chat.ID, "✏️ Блок обновлён: "+service.FormatAllocationLine(*updated)); err != nil {
		return err
	}
	return b.sendDayView(ctx, msg.Chat.ID, user, b.selectedDate(msg.From.ID))
}

func (b *Bot) buildPatch(fields map[string]string) (service.AllocationPatch, error) {
	var patch service.AllocationPatch
	for key, value := range fields {
		v := value
		switch key {
		case "start":
			patch.StartTime = &v
		case "end":
			patch.EndTime = &v
		case "label":
			patch.Label = &v
		case "project":
			patch.ProjectID = &v
		case "category":
			category, err := b.svc.Categories.Parse(v)
			if err != nil {
				return patch, err
			}
			patch.Category = &category
		}
	}
	return patch, nil
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message, args string) error {
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи номер блока: /del 2")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	target, problem := b.resolveAllocation(ctx, user, msg.From.ID, args)
	if target == nil {
		return b.sendText(msg.Chat.ID, problem)
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, target.ID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	allocation, err := b.svc.Allocations.Get(ctx, user, id)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}

	b.clearConversation(from.ID)
	b.setConfirmation(from.ID, confirmationRequest{action: actionDeleteAllocation, id: allocation.ID})
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("Удалить блок %s?", service.FormatAllocationLine(*allocation)), confirmKeyboard())
}

func (b *Bot) deleteAllocationAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.svc.Allocations.Delete(ctx, user, id); err != nil {
		return b.sendText(chatID, describeError(err))
	}
	if err := b.sendText(chatID, "🗑 Блок удалён."); err != nil {
		return err
	}
	return b.sendDayView(ctx, chatID, user, b.selectedDate(from.ID))
}

func (b *Bot) handleSummary(ctx context.Context, msg *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	date, err := parseDateArg(args, time.Now(), b.selectedDate(msg.From.ID))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Не могу распознать дату. Пример: <code>/summary 2025-05-12</code>.")
	}
	summary, err := b.svc.Summaries.DailySummary(ctx, user, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, formatSummary(summary, date))
}

func (b *Bot) handleWindow(ctx context.Context, msg *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	if args == "" {
		window, err := b.svc.Preferences.Window(ctx, user)
		if err != nil {
			return b.sendText(msg.Chat.ID, describeError(err))
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"🌅 Окно дня: %s–%s (%s).\nИзменить: <code>/window 07:00 22:30</code>",
			window.Start, window.End, service.FormatMinutes(window.TotalMinutes())))
	}

	start, end, err := parseWindowArgs(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	prefs, err := b.svc.Preferences.SetDayPreferences(ctx, user, start, end)
	if err != nil {
		var invariant *apperr.PreferenceInvariantError
		if errors.As(err, &invariant) {
			return b.sendText(msg.Chat.ID, describeError(err))
		}
		return b.sendText(msg.Chat.ID, "Не могу распознать время. Пример: <code>/window 07:00 22:30</code>")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌅 Окно дня обновлено: %s–%s.", prefs.DayStartTime, prefs.DayEndTime))
}

func (b *Bot) handleSaveTemplate(ctx context.Context, msg *tgbotapi.Message, name string) error {
	if name == "" {
		return b.sendText(msg.Chat.ID, "Укажи название: /savetemplate Рабочий день")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	date := b.selectedDate(msg.From.ID)
	tpl, err := b.svc.Templates.SaveAsTemplate(ctx, user, name, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🧩 Шаблон «%s» сохранён из %s: %d бл., %s.",
		escape(tpl.Name), formatDate(date), len(tpl.Blocks), service.FormatMinutes(tpl.TotalMinutes())))
}

func (b *Bot) handleTemplates(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTemplates(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTemplates(ctx context.Context, chatID int64, user *model.User) error {
	templates, err := b.svc.Templates.ListTemplates(ctx, user)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}
	if len(templates) == 0 {
		return b.sendText(chatID, formatTemplates(templates))
	}
	return b.sendWithReplyMarkup(chatID, formatTemplates(templates), templatesKeyboard(templates))
}

// resolveTemplate maps a position in the template listing to the current row.
func (b *Bot) resolveTemplate(ctx context.Context, user *model.User, raw string) (*model.TimeTemplate, string) {
	templates, err := b.svc.Templates.ListTemplates(ctx, user)
	if err != nil {
		return nil, describeError(err)
	}
	idx, err := parseIndex(raw, len(templates))
	if err != nil {
		return nil, fmt.Sprintf("Не могу найти шаблон: %s. Посмотри номера в /templates.", escape(err.Error()))
	}
	return &templates[idx], ""
}

func (b *Bot) handleLoadTemplate(ctx context.Context, msg *tgbotapi.Message, args string) error {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		return b.sendText(msg.Chat.ID, "Укажи номер шаблона и, при желании, дату: /loadtemplate 1 завтра")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	tpl, problem := b.resolveTemplate(ctx, user, parts[0])
	if tpl == nil {
		return b.sendText(msg.Chat.ID, problem)
	}
	date := b.selectedDate(msg.From.ID)
	if len(parts) == 2 {
		if date, err = parseDateArg(parts[1], time.Now(), date); err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Пример: <code>2025-05-12</code>.")
		}
	}
	return b.askLoadConfirmation(ctx, msg.Chat.ID, msg.From, tpl.ID, date)
}

func (b *Bot) askLoadConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, id string, date time.Time) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	tpl, err := b.svc.Templates.GetTemplate(ctx, user, id)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}
	existing, err := b.svc.Allocations.List(ctx, user, date)
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}

	text := fmt.Sprintf("Загрузить шаблон «%s» (%d бл.) на %s?", escape(tpl.Name), len(tpl.Blocks), formatDate(date))
	if len(existing) > 0 {
		text += fmt.Sprintf("\n⚠️ Текущие блоки дня (%d) будут удалены.", len(existing))
	}
	b.clearConversation(from.ID)
	b.setConfirmation(from.ID, confirmationRequest{action: actionLoadTemplate, id: tpl.ID, date: date})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) loadTemplateAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id string, date time.Time) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.svc.Templates.LoadTemplate(ctx, user, id, date); err != nil {
		return b.sendText(chatID, describeError(err))
	}
	b.setSelectedDate(from.ID, date)
	if err := b.sendText(chatID, "📥 Шаблон загружен."); err != nil {
		return err
	}
	return b.sendDayView(ctx, chatID, user, date)
}

func (b *Bot) handleDeleteTemplate(ctx context.Context, msg *tgbotapi.Message, args string) error {
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи номер шаблона: /deltemplate 1")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	tpl, problem := b.resolveTemplate(ctx, user, args)
	if tpl == nil {
		return b.sendText(msg.Chat.ID, problem)
	}
	return b.deleteTemplateAndRefresh(ctx, msg.Chat.ID, msg.From, tpl.ID)
}

func (b *Bot) deleteTemplateAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.svc.Templates.DeleteTemplate(ctx, user, id); err != nil {
		return b.sendText(chatID, describeError(err))
	}
	if err := b.sendText(chatID, "🗑 Шаблон удалён."); err != nil {
		return err
	}
	return b.sendTemplates(ctx, chatID, user)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminders.DailyDigest(ctx, user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}
