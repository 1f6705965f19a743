package model

// Category classifies a time block (work, health, sleep, etc.).
type Category string

const (
	CategoryWork     Category = "work"
	CategoryDeepWork Category = "deep_work"
	CategoryHealth   Category = "health"
	CategoryPersonal Category = "personal"
	CategoryLearning Category = "learning"
	CategoryAdmin    Category = "admin"
	CategorySleep    Category = "sleep"
	CategoryMeals    Category = "meals"
	CategoryCommute  Category = "commute"
	CategoryOther    Category = "other"
)

// CategoryInfo is the display data of a category.
type CategoryInfo struct {
	ID    Category
	Label string
	Color string
	Icon  string
}

// catalog is process-wide configuration, not user data. Order is display order.
var catalog = []CategoryInfo{
	{ID: CategoryWork, Label: "Работа", Color: "#3B82F6", Icon: "💼"},
	{ID: CategoryDeepWork, Label: "Глубокая работа", Color: "#6366F1", Icon: "🧠"},
	{ID: CategoryHealth, Label: "Здоровье", Color: "#10B981", Icon: "🩺"},
	{ID: CategoryPersonal, Label: "Личное", Color: "#F59E0B", Icon: "🧩"},
	{ID: CategoryLearning, Label: "Учёба", Color: "#8B5CF6", Icon: "🎓"},
	{ID: CategoryAdmin, Label: "Дела", Color: "#64748B", Icon: "🗂"},
	{ID: CategorySleep, Label: "Сон", Color: "#1E3A8A", Icon: "😴"},
	{ID: CategoryMeals, Label: "Еда", Color: "#EF4444", Icon: "🍽"},
	{ID: CategoryCommute, Label: "Дорога", Color: "#14B8A6", Icon: "🚌"},
	{ID: CategoryOther, Label: "Другое", Color: "#9CA3AF", Icon: "🏷️"},
}

var catalogIndex = func() map[Category]CategoryInfo {
	idx := make(map[Category]CategoryInfo, len(catalog))
	for _, info := range catalog {
		idx[info.ID] = info
	}
	return idx
}()

// Categories returns the catalog in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	copy(out, catalog)
	return out
}

// LookupCategory returns the catalog entry for id.
func LookupCategory(id Category) (CategoryInfo, bool) {
	info, ok := catalogIndex[id]
	return info, ok
}

// Valid reports whether c is part of the catalog.
func (c Category) Valid() bool {
	_, ok := catalogIndex[c]
	return ok
}

// Normalize folds an empty or unknown category into CategoryOther.
func (c Category) Normalize() Category {
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Info returns the catalog entry, falling back to CategoryOther.
func (c Category) Info() CategoryInfo {
	return catalogIndex[c.Normalize()]
}
