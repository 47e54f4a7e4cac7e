package jsonph

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// Post represents a post record.
type Post struct {
	ID     int    `json:"id"     yaml:"id"`
	UserID int    `json:"userId" yaml:"user_id"`
	Title  string `json:"title"  yaml:"title"`
	Body   string `json:"body"   yaml:"body"`
}

// PostCreateRequest is the payload for creating a post.
type PostCreateRequest struct {
	UserID int    `json:"userId" yaml:"user_id"`
	Title  string `json:"title"  yaml:"title"`
	Body   string `json:"body"   yaml:"body"`
}

// Validate implements validation.Validatable.
func (r PostCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Min(1)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, constants.MaxTitleLength)),
		validation.Field(&r.Body, validation.Required),
	)
}

// PostUpdateRequest replaces the given fields of a post. Nil fields are not sent.
type PostUpdateRequest struct {
	UserID *int    `json:"userId,omitempty" yaml:"user_id,omitempty"`
	Title  *string `json:"title,omitempty"  yaml:"title,omitempty"`
	Body   *string `json:"body,omitempty"   yaml:"body,omitempty"`
}

// Validate implements validation.Validatable. Set fields must not be empty.
func (r PostUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, constants.MaxTitleLength)),
		validation.Field(&r.Body, validation.NilOrNotEmpty),
	)
}

// IsEmpty reports whether no field is set.
func (r PostUpdateRequest) IsEmpty() bool {
	return r.UserID == nil && r.Title == nil && r.Body == nil
}

// PostsClient defines operations for posts.
type PostsClient interface {
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id int) (*Post, error)
	Create(ctx context.Context, request *PostCreateRequest) (*Post, error)
	Update(ctx context.Context, id int, request *PostUpdateRequest) (*Post, error)
	Delete(ctx context.Context, id int) error
}
