package models

import "time"

// Comment belongs to a post; ParentID is set for replies (one level deep).
type Comment struct {
	ID         string      `json:"id"`
	PostID     string      `json:"postId"`
	AuthorID   string      `json:"authorId"`
	ParentID   *string     `json:"parentId"`
	Content    string      `json:"content"`
	Likes      int64       `json:"likes"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Author     *PublicUser `json:"author,omitempty"`
	ReplyCount int64       `json:"replyCount"`
	Post       *PostRef    `json:"post,omitempty"`
}

// PostRef is the shallow post projection attached to "my comments" rows.
type PostRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsPublished bool   `json:"isPublished"`
}
