package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/boostmart/internal/model"
)

// DefaultServices возвращает стартовый набор услуг витрины.
func DefaultServices() []ServiceInput {
	original := decimal.RequireFromString("39.99")

	return []ServiceInput{
		{
			Title:         "Level Boost (1-50)",
			Description:   "Complete level progression from 1 to 50 with professional helldivers.",
			Price:         decimal.RequireFromString("29.99"),
			OriginalPrice: &original,
			Duration:      "24-48 hours",
			Difficulty:    "Beginner",
			Features:      []string{"Full level 1-50 progression", "Safe boosting methods", "24/7 progress tracking"},
			Active:        true,
			Popular:       true,
			Category:      model.CategoryLevelBoost,
		},
		{
			Title:       "Ship Module Unlock",
			Description: "Unlock all available ship modules and upgrades.",
			Price:       decimal.RequireFromString("19.99"),
			Duration:    "12-24 hours",
			Difficulty:  "Intermediate",
			Features:    []string{"All ship modules unlocked", "Strategic facility upgrades", "Resource farming included"},
			Active:      true,
			Category:    model.CategorySamples,
		},
		{
			Title:       "Weapon Mastery Pack",
			Description: "Master all weapons, unlock upgrades, attachments and specializations.",
			Price:       decimal.RequireFromString("34.99"),
			Duration:    "2-3 days",
			Difficulty:  "Advanced",
			Features:    []string{"All weapons mastered", "Unlock all attachments", "Weapon specialization training"},
			Active:      true,
			Popular:     true,
			Category:    model.CategoryLevelBoost,
		},
		{
			Title:       "Stratagem Collection",
			Description: "Unlock the complete stratagem library.",
			Price:       decimal.RequireFromString("24.99"),
			Duration:    "1-2 days",
			Difficulty:  "Intermediate",
			Features:    []string{"All stratagems unlocked", "Offensive and defensive loadouts"},
			Active:      true,
			Category:    model.CategoryMedals,
		},
		{
			Title:       "Super Credits Farm",
			Description: "Farm Super Credits for premium warbonds and cosmetics.",
			Price:       decimal.RequireFromString("15.99"),
			Duration:    "6-12 hours",
			Difficulty:  "Beginner",
			Features:    []string{"1000 Super Credits", "Safe farming routes"},
			Active:      true,
			Popular:     true,
			Category:    model.CategorySuperCredits,
		},
		{
			Title:       "Hellpod Customization",
			Description: "Unlock hellpod designs and customization options.",
			Price:       decimal.RequireFromString("12.99"),
			Duration:    "4-8 hours",
			Difficulty:  "Beginner",
			Features:    []string{"All hellpod designs", "Exclusive cosmetic unlocks"},
			Active:      true,
			Category:    model.CategoryPromotions,
		},
	}
}

// Seed заполняет пустой каталог стартовым набором услуг. Возвращает количество добавленных услуг.
func (c *Catalog) Seed(ctx context.Context, services []ServiceInput) (int, error) {
	if c.Len() > 0 {
		return 0, nil
	}

	for i, in := range services {
		if _, err := c.Add(ctx, in); err != nil {
			return i, err
		}
	}
	return len(services), nil
}
