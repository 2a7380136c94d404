// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// ListingStats summarizes a category's threads. Any new thread, reply, view,
// pin or lock changes at least one field.
type ListingStats struct {
	Count  int64
	Views  int64
	Latest *time.Time
}

// ThreadsStats returns listing statistics for a category. When the category
// has no threads, Count is 0 and Latest is nil.
func ThreadsStats(ctx context.Context, db *gorm.DB, categoryID int64) (ListingStats, error) {
	var st ListingStats
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Thread{}).Where("category_id = ?", categoryID)
	}

	if err := scoped().Count(&st.Count).Error; err != nil {
		return ListingStats{}, err
	}
	if st.Count == 0 {
		return st, nil
	}

	var sum struct{ Views int64 }
	if err := scoped().Select("COALESCE(SUM(view_count), 0) AS views").Scan(&sum).Error; err != nil {
		return ListingStats{}, err
	}
	st.Views = sum.Views

	// Get latest timestamps (avoid MAX() -> TEXT in SQLite)
	var upd struct{ UpdatedAt time.Time }
	if err := scoped().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&upd).Error; err != nil {
		return ListingStats{}, err
	}
	var rep struct{ LastReplyAt time.Time }
	if err := scoped().Select("last_reply_at").Order("last_reply_at DESC").Limit(1).Scan(&rep).Error; err != nil {
		return ListingStats{}, err
	}
	ts := upd.UpdatedAt
	if rep.LastReplyAt.After(ts) {
		ts = rep.LastReplyAt
	}
	st.Latest = &ts
	return st, nil
}
