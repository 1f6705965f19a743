package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"timebudget/internal/model"
)

const (
	cbDeletePrefix       = "delete:"
	cbTemplateLoadPrefix = "tplload:"
	cbTemplateDelPrefix  = "tpldel:"
	cbDayPrefix          = "day:"
)

const (
	btnSkip          = "⏭️ Пропустить"
	btnConfirm       = "✅ Подтвердить"
	btnCancel        = "↩️ Отмена"
	btnCancelDialog  = "⏪ Отменить ввод"
	menuLabelDay     = "🗓 День"
	menuLabelAdd     = "➕ Блок"
	menuLabelSummary = "📊 Итоги"
	menuLabelTpl     = "🧩 Шаблоны"
	menuLabelHelp    = "ℹ️ Помощь"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDay),
			tgbotapi.NewKeyboardButton(menuLabelAdd),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSummary),
			tgbotapi.NewKeyboardButton(menuLabelTpl),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard lists the catalog two per row; button text is "<icon> <label>".
func categoryKeyboard(cats []model.CategoryInfo) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(cats); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(categoryButton(cats[i])))
		if i+1 < len(cats) {
			row = append(row, tgbotapi.NewKeyboardButton(categoryButton(cats[i+1])))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryButton(info model.CategoryInfo) string {
	return info.Icon + " " + info.Label
}

// stripCategoryIcon turns a pressed category button back into its label.
func stripCategoryIcon(text string, cats []model.CategoryInfo) string {
	text = strings.TrimSpace(text)
	for _, info := range cats {
		if text == categoryButton(info) {
			return info.Label
		}
	}
	return text
}

func dayKeyboard(list []model.TimeAllocation) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, a := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %d · %s %s", i+1, a.StartTime, shortTitle(a.DisplayLabel(), 18)),
				cbDeletePrefix+a.ID,
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Вчера", cbDayPrefix+"-1"),
		tgbotapi.NewInlineKeyboardButtonData("Сегодня", cbDayPrefix+"0"),
		tgbotapi.NewInlineKeyboardButtonData("Завтра ▶️", cbDayPrefix+"+1"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func templatesKeyboard(templates []model.TimeTemplate) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, tpl := range templates {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📥 %d · %s", i+1, shortTitle(tpl.Name, 20)), cbTemplateLoadPrefix+tpl.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", cbTemplateDelPrefix+tpl.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
