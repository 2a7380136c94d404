package domain

import "time"

// Read models. Each query shape that joins tables returns one of these
// instead of an open-ended row.

// AuthorSummary is the public slice of a Profile shown next to content.
type AuthorSummary struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Role        string  `json:"role"`
	Karma       int     `json:"karma"`
}

// CategorySummary is the part of a Category embedded in thread responses.
type CategorySummary struct {
	ID     int64   `json:"id"`
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Entity *string `json:"entity"`
}

// ThreadListItem is one row of a thread listing. Category is only filled for
// cross-category listings (recent activity, profile pages).
type ThreadListItem struct {
	ID          int64            `json:"id"`
	CategoryID  int64            `json:"category_id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Pinned      bool             `json:"pinned"`
	Locked      bool             `json:"locked"`
	ViewCount   int64            `json:"view_count"`
	ReplyCount  int64            `json:"reply_count"`
	LastReplyAt time.Time        `json:"last_reply_at"`
	CreatedAt   time.Time        `json:"created_at"`
	Author      AuthorSummary    `json:"author"`
	Category    *CategorySummary `json:"category,omitempty"`
}

// ThreadDetail is a single thread with its author and category.
type ThreadDetail struct {
	Thread
	Author   AuthorSummary   `json:"author"`
	Category CategorySummary `json:"category"`
}

// ReactionCount is the aggregated view of one emoji on one post.
type ReactionCount struct {
	Emoji      string `json:"emoji"`
	Count      int    `json:"count"`
	HasReacted bool   `json:"has_reacted"`
}

// PostView is a post with its author and aggregated reactions.
type PostView struct {
	Post
	Author    AuthorSummary   `json:"author"`
	Reactions []ReactionCount `json:"reactions"`
}

// LatestThread is the newest thread of a category on the overview page.
type LatestThread struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
}

// CategoryOverview is a category with its activity summary.
type CategoryOverview struct {
	Category
	ThreadCount  int64         `json:"thread_count"`
	LatestThread *LatestThread `json:"latest_thread,omitempty"`
}

// ProfileView is a public profile page.
type ProfileView struct {
	Profile
	ThreadCount int64            `json:"thread_count"`
	PostCount   int64            `json:"post_count"`
	Threads     []ThreadListItem `json:"threads"`
}
