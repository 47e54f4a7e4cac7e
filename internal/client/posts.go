package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// PostsClient implements jsonph.PostsClient.
type PostsClient struct {
	pipeline *jsonph.Pipeline
}

// NewPostsClient creates a new posts client.
func NewPostsClient(pipeline *jsonph.Pipeline) *PostsClient {
	return &PostsClient{
		pipeline: pipeline,
	}
}

// List implements jsonph.PostsClient.List.
func (c *PostsClient) List(ctx context.Context) ([]jsonph.Post, error) {
	var posts []jsonph.Post

	err := c.do(ctx, jsonph.MethodGet, constants.PostsPath, nil, &posts)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	return posts, nil
}

// Get implements jsonph.PostsClient.Get.
func (c *PostsClient) Get(ctx context.Context, id int) (*jsonph.Post, error) {
	err := validatePostID(id)
	if err != nil {
		return nil, err
	}

	var post jsonph.Post

	err = c.do(ctx, jsonph.MethodGet, postPath(id), nil, &post)
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}

	return &post, nil
}

// Create implements jsonph.PostsClient.Create.
func (c *PostsClient) Create(ctx context.Context, request *jsonph.PostCreateRequest) (*jsonph.Post, error) {
	if request == nil {
		return nil, jsonph.NewValidationError("post is required", jsonph.ErrInvalidPost)
	}

	err := request.Validate()
	if err != nil {
		return nil, jsonph.NewValidationError("invalid post", err)
	}

	var post jsonph.Post

	err = c.do(ctx, jsonph.MethodPost, constants.PostsPath, request, &post)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	return &post, nil
}

// Update implements jsonph.PostsClient.Update.
func (c *PostsClient) Update(ctx context.Context, id int, request *jsonph.PostUpdateRequest) (*jsonph.Post, error) {
	err := validatePostID(id)
	if err != nil {
		return nil, err
	}

	if request == nil || request.IsEmpty() {
		return nil, jsonph.NewValidationError("invalid post", constants.ErrNothingToUpdate)
	}

	err = request.Validate()
	if err != nil {
		return nil, jsonph.NewValidationError("invalid post", err)
	}

	var post jsonph.Post

	err = c.do(ctx, jsonph.MethodPut, postPath(id), request, &post)
	if err != nil {
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}

	return &post, nil
}

// Delete implements jsonph.PostsClient.Delete.
func (c *PostsClient) Delete(ctx context.Context, id int) error {
	err := validatePostID(id)
	if err != nil {
		return err
	}

	err = c.do(ctx, jsonph.MethodDelete, postPath(id), nil, nil)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	return nil
}

// do executes one pipeline call, encoding payload and decoding into out when
// they are non-nil.
func (c *PostsClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	req := &jsonph.Request{
		Method: method,
		Path:   path,
	}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return jsonph.NewUnknownError(fmt.Errorf("encoding request body: %w", err))
		}

		req.Body = body
	}

	resp, err := c.pipeline.Execute(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return jsonph.NewUnknownError(fmt.Errorf("parsing %s response: %w", path, err))
	}

	return nil
}

func validatePostID(id int) error {
	err := validation.Errors{
		"id": validation.Validate(id, validation.Required, validation.Min(1)),
	}.Filter()
	if err != nil {
		return jsonph.NewValidationError("invalid post id", err)
	}

	return nil
}

func postPath(id int) string {
	return constants.PostsPath + "/" + strconv.Itoa(id)
}
