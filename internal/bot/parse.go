package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"timebudget/internal/clock"
)

// parseDateArg resolves "", today/tomorrow/yesterday (ru or en), YYYY-MM-DD or DD.MM.YYYY
// relative to now. An empty argument means fallback.
func parseDateArg(raw string, now, fallback time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch value {
	case "":
		return fallback, nil
	case "сегодня", "today":
		return today, nil
	case "завтра", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "вчера", "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	if d, err := time.ParseInLocation("02.01.2006", value, now.Location()); err == nil {
		return d, nil
	}
	d, err := time.ParseInLocation(clock.DateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return d, nil
}

// parseIndex parses a 1-based position in a listing of n items.
func parseIndex(raw string, n int) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#")))
	if err != nil {
		return 0, fmt.Errorf("номер должен быть числом")
	}
	if idx < 1 || idx > n {
		if n == 0 {
			return 0, fmt.Errorf("список пуст")
		}
		return 0, fmt.Errorf("номер должен быть от 1 до %d", n)
	}
	return idx - 1, nil
}

var editKeys = map[string]string{
	"start":     "start",
	"начало":    "start",
	"end":       "end",
	"конец":     "end",
	"category":  "category",
	"cat":       "category",
	"категория": "category",
	"label":     "label",
	"название":  "label",
	"project":   "project",
	"проект":    "project",
}

// parseEditArgs splits "<n> key=value key=value…" into the position and the fields.
// A value may contain spaces: words without "=" continue the previous value.
func parseEditArgs(args string) (string, map[string]string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", nil, fmt.Errorf("нужно указать номер и хотя бы одно поле")
	}

	out := make(map[string]string)
	current := ""
	for _, token := range fields[1:] {
		key, value, found := strings.Cut(token, "=")
		if !found {
			if current == "" {
				return "", nil, fmt.Errorf("ожидалось поле=значение, получено «%s»", token)
			}
			out[current] = strings.TrimSpace(out[current] + " " + token)
			continue
		}
		canonical, ok := editKeys[strings.ToLower(key)]
		if !ok {
			return "", nil, fmt.Errorf("неизвестное поле «%s»", key)
		}
		current = canonical
		out[current] = value
	}
	return fields[0], out, nil
}

// parseWindowArgs parses "HH:MM HH:MM" or "HH:MM-HH:MM".
func parseWindowArgs(args string) (string, string, error) {
	normalized := strings.NewReplacer("–", " ", "—", " ", "-", " ").Replace(args)
	parts := strings.Fields(normalized)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("укажи начало и конец: /window 07:00 22:30")
	}
	return parts[0], parts[1], nil
}
