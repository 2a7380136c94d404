// Package domain defines the persistence models for profiles, categories,
// threads, posts and reactions. These types are mapped with GORM and form
// the core data layer of the forum.
package domain

import "time"

// Profile roles. Role is assigned by the system and never by the owner.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ReactionEmojis is the fixed reaction set in canonical display order.
var ReactionEmojis = []string{"fire", "zap", "brain", "lightbulb", "heart"}

// IsReactionEmoji reports whether e belongs to ReactionEmojis.
func IsReactionEmoji(e string) bool {
	for _, v := range ReactionEmojis {
		if v == e {
			return true
		}
	}
	return false
}

// EmojiRank returns the canonical position of e, or len(ReactionEmojis)
// for unknown values so they sort last.
func EmojiRank(e string) int {
	for i, v := range ReactionEmojis {
		if v == e {
			return i
		}
	}
	return len(ReactionEmojis)
}

// Profile is the public identity of a registered user. One profile exists per
// account and shares its ID.
//
// Fields:
//   - ID: account UUID (char(36)).
//   - Username: lowercase handle, unique; 3–20 chars of [a-z0-9_-].
//   - DisplayName: handle as typed at registration (original casing).
//   - AvatarURL: optional image URL.
//   - Role: member, moderator or admin (DB check constraint).
//   - Karma: reputation score; not updated by any write path here.
type Profile struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Username    string    `json:"username"     gorm:"type:varchar(20);not null;uniqueIndex:ux_profiles_username"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(64);not null"`
	AvatarURL   *string   `json:"avatar_url"   gorm:"type:varchar(512)"`
	Bio         string    `json:"bio"          gorm:"type:text;not null;default:''"`
	Role        string    `json:"role"         gorm:"type:varchar(16);not null;default:'member';check:role IN ('member','moderator','admin')"`
	Karma       int       `json:"karma"        gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Account is the credential record behind a Profile. It is never serialized
// to clients.
type Account struct {
	ID             string    `json:"-" gorm:"type:char(36);primaryKey"`
	Email          string    `json:"-" gorm:"type:varchar(320);not null;uniqueIndex:ux_accounts_email"`
	PasswordHash   string    `json:"-" gorm:"type:varchar(100);not null"`
	EmailConfirmed bool      `json:"-" gorm:"not null;default:false"`
	ConfirmToken   *string   `json:"-" gorm:"type:varchar(64);index"`
	SessionVersion int       `json:"-" gorm:"not null;default:1"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Category is a forum section. Slug is the public address and SortOrder the
// display position (ascending).
type Category struct {
	ID          int64   `json:"id"          gorm:"primaryKey"`
	Slug        string  `json:"slug"        gorm:"type:varchar(80);not null;uniqueIndex:ux_categories_slug"`
	Name        string  `json:"name"        gorm:"type:varchar(120);not null"`
	Description string  `json:"description" gorm:"type:text;not null;default:''"`
	Entity      *string `json:"entity"      gorm:"type:varchar(32)"`
	Color       string  `json:"color"       gorm:"type:varchar(16);not null;default:'#00FF41'"`
	Icon        *string `json:"icon"        gorm:"type:varchar(64)"`
	SortOrder   int     `json:"sort_order"  gorm:"not null;default:0;index"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Thread is a top-level discussion inside a category. Its Content is the
// opening post; replies live in the posts table.
//
// ReplyCount mirrors the number of posts in the thread and is maintained in
// the same transaction as each post insert. ViewCount only grows.
type Thread struct {
	ID          int64     `json:"id"            gorm:"primaryKey;autoIncrement:false"`
	CategoryID  int64     `json:"category_id"   gorm:"not null;index:idx_threads_listing,priority:1"`
	AuthorID    string    `json:"author_id"     gorm:"type:char(36);not null;index"`
	Title       string    `json:"title"         gorm:"type:varchar(200);not null"`
	Slug        string    `json:"slug"          gorm:"type:varchar(80);not null"`
	Content     string    `json:"content"       gorm:"type:text;not null"`
	Pinned      bool      `json:"pinned"        gorm:"not null;default:false;index:idx_threads_listing,priority:2"`
	Locked      bool      `json:"locked"        gorm:"not null;default:false"`
	ViewCount   int64     `json:"view_count"    gorm:"not null;default:0"`
	ReplyCount  int64     `json:"reply_count"   gorm:"not null;default:0"`
	LastReplyAt time.Time `json:"last_reply_at" gorm:"not null;index:idx_threads_listing,priority:3"`
	CreatedAt   time.Time `json:"created_at"    gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author   Profile  `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Thread.
func (Thread) TableName() string { return "threads" }

// Post is a reply inside a thread. ReplyToID optionally points at another
// post of the same thread.
type Post struct {
	ID        int64     `json:"id"          gorm:"primaryKey;autoIncrement:false"`
	ThreadID  int64     `json:"thread_id"   gorm:"not null;index:idx_posts_thread,priority:1"`
	AuthorID  string    `json:"author_id"   gorm:"type:char(36);not null;index"`
	Content   string    `json:"content"     gorm:"type:text;not null"`
	ReplyToID *int64    `json:"reply_to_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"  gorm:"index:idx_posts_thread,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	Thread  Thread  `json:"-" gorm:"foreignKey:ThreadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author  Profile `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ReplyTo *Post   `json:"-" gorm:"foreignKey:ReplyToID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Reaction is one user's emoji on one post. The unique index makes a
// (post, user, emoji) triple appear at most once, so toggling is insert or
// delete, never a counter update.
type Reaction struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	PostID    int64     `json:"post_id"    gorm:"not null;uniqueIndex:ux_reactions_post_user_emoji,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_reactions_post_user_emoji,priority:2"`
	Emoji     string    `json:"emoji"      gorm:"type:varchar(16);not null;uniqueIndex:ux_reactions_post_user_emoji,priority:3;check:emoji IN ('fire','zap','brain','lightbulb','heart')"`
	CreatedAt time.Time `json:"created_at"`

	Post Post    `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User Profile `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string { return "reactions" }
