package models

import "time"

// Article is one news item as delivered by a news source. It is never mutated
// after the source produces it.
type Article struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"url" db:"url"`
	Source      string    `json:"source" db:"source"`
	Content     string    `json:"content,omitempty" db:"content"`
}

// Text returns the full text used for keyword scanning
func (a Article) Text() string {
	return a.Title + " " + a.Description + " " + a.Content
}

// Headline returns title + description, used for narrative context
func (a Article) Headline() string {
	return a.Title + " " + a.Description
}
