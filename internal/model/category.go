package model

type Category string

const (
	CategoryWork       Category = "work"
	CategoryPersonal   Category = "personal"
	CategoryFinance    Category = "finance"
	CategoryShopping   Category = "shopping"
	CategoryNewsletter Category = "newsletter"
	CategorySocial     Category = "social"
	CategoryOther      Category = "other"
)

// Categories lists every category in classification order. "other" is last
// because it only applies when nothing else matched.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryFinance,
	CategoryShopping,
	CategoryNewsletter,
	CategorySocial,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
