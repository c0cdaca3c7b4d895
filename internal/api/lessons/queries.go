package lessons

import (
	"errors"

	"gorm.io/gorm"

	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/reviews"
)

func searchQuery(db *gorm.DB, f lessons.SearchFilters) *gorm.DB {
	q := db.Model(&lessons.Lesson{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.InstructorID != "" {
		q = q.Where("instructor_id = ?", f.InstructorID)
	}
	if f.MinPrice != nil {
		q = q.Where("price_cents >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price_cents <= ?", *f.MaxPrice)
	}
	if f.Published != nil {
		q = q.Where("published = ?", *f.Published)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	dir := " ASC"
	if f.SortDesc {
		dir = " DESC"
	}
	return q.Order(string(f.Sort) + dir)
}

func completedPurchaseCount(db *gorm.DB, lessonID string) (int64, error) {
	var count int64
	err := db.Model(&purchases.Purchase{}).
		Where("lesson_id = ? AND status = ?", lessonID, purchases.StatusCompleted).
		Count(&count).Error
	return count, err
}

func userHasPurchased(db *gorm.DB, userID, lessonID string) (bool, error) {
	var count int64
	err := db.Model(&purchases.Purchase{}).
		Where("user_id = ? AND lesson_id = ? AND status = ?", userID, lessonID, purchases.StatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func userReview(db *gorm.DB, userID, lessonID string) (*lessons.ReviewSummary, error) {
	var rv reviews.Review
	err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lessons.ReviewSummary{ID: rv.ID, Rating: rv.Rating, Comment: rv.Comment}, nil
}

// lessonStats recomputes the derived aggregates from purchase and review
// rows. Revenue counts completed purchases only.
func lessonStats(db *gorm.DB, lessonID string) (lessons.Stats, error) {
	var s lessons.Stats

	row := db.Model(&purchases.Purchase{}).
		Select("COUNT(*) AS purchase_count, COALESCE(SUM(amount_cents), 0) AS revenue_cents").
		Where("lesson_id = ? AND status = ?", lessonID, purchases.StatusCompleted).
		Row()
	if err := row.Scan(&s.PurchaseCount, &s.RevenueCents); err != nil {
		return s, err
	}

	row = db.Model(&reviews.Review{}).
		Select("COUNT(*) AS review_count, COALESCE(AVG(rating), 0) AS average_rating").
		Where("lesson_id = ?", lessonID).
		Row()
	if err := row.Scan(&s.ReviewCount, &s.AverageRating); err != nil {
		return s, err
	}
	return s, nil
}
