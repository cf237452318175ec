// Package courses implements the course catalog: public read access
// and privileged management endpoints for administrators holding the
// manage_courses permission.
package courses

import (
	"errors"
	"strings"
	"time"
)

// Course is a single catalog entry.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrNotFound indicates the course does not exist.
var ErrNotFound = errors.New("course not found")

// CourseRequest is the create/update payload.
type CourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
}

// Validate checks the payload before it touches the store.
func (r *CourseRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if len(r.Title) > 200 {
		return errors.New("title must be at most 200 characters")
	}
	return nil
}
