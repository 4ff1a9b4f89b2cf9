package seed

import (
	"errors"
	"fmt"

	"sharify/internal/models"

	"gorm.io/gorm"
)

// BuiltInResources are curated preparation resources every environment
// starts with.
var BuiltInResources = []models.Resource{
	{
		Title:        "Striver's SDE Sheet",
		Description:  "180 problems that cover the usual interview patterns.",
		Content:      "Work through arrays, linked lists, trees and graphs before dynamic programming.",
		ResourceType: models.ResourceTypeLink,
		Link:         "https://takeuforward.org/interviews/strivers-sde-sheet-top-coding-interview-problems/",
		Tags:         []string{"dsa", "practice"},
		Author:       "takeUforward",
	},
	{
		Title:        "System Design Primer",
		Description:  "Open-source guide to designing large scale systems.",
		Content:      "Start with the scalability video lecture, then read the performance vs scalability section.",
		ResourceType: models.ResourceTypeLink,
		Link:         "https://github.com/donnemartin/system-design-primer",
		Tags:         []string{"system-design"},
		Author:       "Donne Martin",
	},
	{
		Title:        "Resume checklist",
		Description:  "One page, quantified impact, no photos.",
		Content:      "Lead with projects that match the role. Quantify outcomes. Keep it to one page.",
		ResourceType: models.ResourceTypeNote,
		Tags:         []string{"resume"},
	},
	{
		Title:        "SQL interview drills",
		Description:  "Joins, window functions and aggregation questions.",
		Content:      "Practise GROUP BY with HAVING, ROW_NUMBER over partitions and self joins.",
		ResourceType: models.ResourceTypeLink,
		Link:         "https://leetcode.com/studyplan/top-sql-50/",
		Tags:         []string{"sql"},
	},
}

// Resources seeds BuiltInResources. Existing titles are left alone, so it is
// safe to run repeatedly.
func Resources(db *gorm.DB) error {
	for _, item := range BuiltInResources {
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.Resource
			err := tx.Where("title = ?", item.Title).First(&existing).Error
			switch {
			case err == nil:
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
			resource := item
			return tx.Create(&resource).Error
		})
		if err != nil {
			return fmt.Errorf("seed built-in resource %q: %w", item.Title, err)
		}
	}
	return nil
}
