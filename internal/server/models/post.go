package models

import "time"

// Post is an authored article. Tags is a comma-separated list, kept as
// free text the way the original schema stores it.
type Post struct {
	ID           string      `json:"id"`
	AuthorID     string      `json:"authorId"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Tags         string      `json:"tags"`
	IsPublished  bool        `json:"isPublished"`
	Views        int64       `json:"views"`
	Likes        int64       `json:"likes"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Author       *PublicUser `json:"author,omitempty"`
	CommentCount int64       `json:"commentCount"`
}
