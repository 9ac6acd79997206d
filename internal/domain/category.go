package domain

import "strings"

// Category groups milestones on a pathway card. Every item belongs to exactly
// one category and categories always render in CategoryOrder.
type Category string

const (
	CategoryRegistration  Category = "Registration"
	CategoryLanguage      Category = "Language"
	CategoryExam          Category = "Exam"
	CategoryTraining      Category = "Training"
	CategoryDocument      Category = "Document"
	CategoryCertification Category = "Certification"
	CategoryCustom        Category = "Custom"
)

// CategoryFallback is used for empty or unrecognized category text.
const CategoryFallback = CategoryTraining

// CategoryMeta carries presentation metadata for a category.
type CategoryMeta struct {
	Label string
	Icon  string
	Color string
	Order int
}

var categoryMeta = map[Category]CategoryMeta{
	CategoryRegistration:  {Label: "Registration", Icon: "shield-check", Color: "#3b82f6", Order: 1},
	CategoryLanguage:      {Label: "Language", Icon: "languages", Color: "#8b5cf6", Order: 2},
	CategoryExam:          {Label: "Exams", Icon: "file-text", Color: "#f59e0b", Order: 3},
	CategoryTraining:      {Label: "Training", Icon: "graduation-cap", Color: "#10b981", Order: 4},
	CategoryDocument:      {Label: "Documents", Icon: "scroll-text", Color: "#f97316", Order: 5},
	CategoryCertification: {Label: "Certification", Icon: "award", Color: "#eab308", Order: 6},
	CategoryCustom:        {Label: "Custom", Icon: "user-plus", Color: "#0ea5e9", Order: 7},
}

// CategoryOrder lists categories in display order.
var CategoryOrder = []Category{
	CategoryRegistration,
	CategoryLanguage,
	CategoryExam,
	CategoryTraining,
	CategoryDocument,
	CategoryCertification,
	CategoryCustom,
}

// legacy and free-text spellings that are not a canonical name or label
var categoryAliases = map[string]Category{
	"career":         CategoryTraining,
	"exams":          CategoryExam,
	"examination":    CategoryExam,
	"documents":      CategoryDocument,
	"documentation":  CategoryDocument,
	"certifications": CategoryCertification,
	"languages":      CategoryLanguage,
}

// ResolveCategory normalizes stored or AI-generated category text into the
// canonical enumeration. Matching ignores case and surrounding whitespace and
// accepts either the canonical name or the display label. It never fails:
// anything unrecognized resolves to CategoryFallback.
func ResolveCategory(raw string) Category {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return CategoryFallback
	}
	for _, c := range CategoryOrder {
		if key == strings.ToLower(string(c)) || key == strings.ToLower(categoryMeta[c].Label) {
			return c
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return CategoryFallback
}

// ResolveCustomCategory resolves the category of a user-created milestone.
// Custom milestones saved without a category belong to CategoryCustom.
func ResolveCustomCategory(raw string) Category {
	if strings.TrimSpace(raw) == "" {
		return CategoryCustom
	}
	return ResolveCategory(raw)
}

// Meta returns the presentation metadata for c.
func (c Category) Meta() CategoryMeta {
	if m, ok := categoryMeta[c]; ok {
		return m
	}
	return categoryMeta[CategoryFallback]
}

// OrderIndex returns the position of c in CategoryOrder (1-based).
func (c Category) OrderIndex() int {
	return c.Meta().Order
}

func (c Category) IsValid() bool {
	_, ok := categoryMeta[c]
	return ok
}
