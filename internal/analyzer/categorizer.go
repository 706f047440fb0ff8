package analyzer

import (
	"strings"

	"inbox-dashboard/internal/model"
)

type categoryKeywords struct {
	category model.Category
	keywords []string
}

// Order matters: the first bucket with a hit wins.
var categoryBuckets = []categoryKeywords{
	{model.CategoryWork, []string{"work", "project", "deadline", "meeting", "report", "client", "boss", "manager"}},
	{model.CategoryPersonal, []string{"personal", "family", "friend", "birthday", "invitation"}},
	{model.CategoryFinance, []string{"bank", "payment", "invoice", "bill", "transaction", "money", "salary"}},
	{model.CategoryShopping, []string{"order", "delivery", "amazon", "flipkart", "shipped", "tracking"}},
	{model.CategoryNewsletter, []string{"newsletter", "subscription", "unsubscribe", "digest", "update"}},
	{model.CategorySocial, []string{"linkedin", "facebook", "twitter", "instagram", "notification"}},
}

func Categorize(subject, body string) model.Category {
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)
	for _, bucket := range categoryBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(subject, keyword) || strings.Contains(body, keyword) {
				return bucket.category
			}
		}
	}
	return model.CategoryOther
}
