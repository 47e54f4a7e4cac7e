package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// maxConcurrentGets bounds parallel fetches in "posts get".
const maxConcurrentGets = 4

// NewPostsCommand creates the posts command group.
func NewPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post"},
		Short:   "Manage posts",
		Long:    "List, fetch, create, update and delete JSONPlaceholder posts",
	}

	cmd.AddCommand(newPostsListCommand())
	cmd.AddCommand(newPostsGetCommand())
	cmd.AddCommand(newPostsCreateCommand())
	cmd.AddCommand(newPostsUpdateCommand())
	cmd.AddCommand(newPostsDeleteCommand())

	return cmd
}

func postsTable(posts []jsonph.Post) func(*tablewriter.Table) error {
	return func(table *tablewriter.Table) error {
		table.Header("ID", "User ID", "Title", "Body")

		for _, post := range posts {
			err := table.Append(
				strconv.Itoa(post.ID),
				strconv.Itoa(post.UserID),
				TruncateString(post.Title, constants.StringTruncationLimit),
				TruncateString(post.Body, constants.StringTruncationLimit),
			)
			if err != nil {
				return fmt.Errorf("failed to append row: %w", err)
			}
		}

		return nil
	}
}

func newPostsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Long:  "List all posts, optionally keeping only the first --limit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client jsonph.Client) error {
				posts, err := client.Posts().List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list posts: %w", err)
				}

				if limit > 0 && len(posts) > limit {
					posts = posts[:limit]
				}

				return render(cmd.OutOrStdout(), posts, postsTable(posts))
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of posts to show (0 shows all)")

	return cmd
}

func newPostsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get POST_ID [POST_ID...]",
		Short: "Get posts by ID",
		Long:  "Fetch one or more posts concurrently, preserving argument order in the output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return constants.ErrPostIDRequired
			}

			ids := make([]int, len(args))

			for i, arg := range args {
				id, err := parsePostID(arg)
				if err != nil {
					return err
				}

				ids[i] = id
			}

			return withClient(func(client jsonph.Client) error {
				posts, err := fetchPosts(cmd.Context(), client.Posts(), ids)
				if err != nil {
					return err
				}

				if len(posts) == 1 {
					return render(cmd.OutOrStdout(), posts[0], postsTable(posts))
				}

				return render(cmd.OutOrStdout(), posts, postsTable(posts))
			})
		},
	}
}

// fetchPosts gets every id concurrently. The first failure cancels the rest.
func fetchPosts(ctx context.Context, client jsonph.PostsClient, ids []int) ([]jsonph.Post, error) {
	posts := make([]jsonph.Post, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentGets)

	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			post, err := client.Get(groupCtx, id)
			if err != nil {
				return fmt.Errorf("failed to get post %d: %w", id, err)
			}

			posts[i] = *post

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return posts, nil
}

func newPostsCreateCommand() *cobra.Command {
	var request jsonph.PostCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Long:  "Create a post. The upstream echoes the post back with an assigned ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client jsonph.Client) error {
				post, err := client.Posts().Create(cmd.Context(), &request)
				if err != nil {
					return fmt.Errorf("failed to create post: %w", err)
				}

				return render(cmd.OutOrStdout(), post, postsTable([]jsonph.Post{*post}))
			})
		},
	}

	cmd.Flags().IntVar(&request.UserID, "user-id", 0, "ID of the post author")
	cmd.Flags().StringVar(&request.Title, "title", "", "post title")
	cmd.Flags().StringVar(&request.Body, "body", "", "post body")

	return cmd
}

func newPostsUpdateCommand() *cobra.Command {
	var (
		userID int
		title  string
		body   string
	)

	cmd := &cobra.Command{
		Use:   "update POST_ID",
		Short: "Update a post",
		Long:  "Update the fields of a post given by flags. Unset flags leave fields untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			request := &jsonph.PostUpdateRequest{}
			if cmd.Flags().Changed("user-id") {
				request.UserID = &userID
			}

			if cmd.Flags().Changed("title") {
				request.Title = &title
			}

			if cmd.Flags().Changed("body") {
				request.Body = &body
			}

			if request.IsEmpty() {
				return fmt.Errorf("%w: use --user-id, --title or --body", constants.ErrNothingToUpdate)
			}

			return withClient(func(client jsonph.Client) error {
				post, err := client.Posts().Update(cmd.Context(), id, request)
				if err != nil {
					return fmt.Errorf("failed to update post %d: %w", id, err)
				}

				return render(cmd.OutOrStdout(), post, postsTable([]jsonph.Post{*post}))
			})
		},
	}

	cmd.Flags().IntVar(&userID, "user-id", 0, "new author ID")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&body, "body", "", "new body")

	return cmd
}

func newPostsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete POST_ID",
		Short: "Delete a post",
		Long:  "Delete a post by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			return withClient(func(client jsonph.Client) error {
				err := client.Posts().Delete(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to delete post %d: %w", id, err)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Post %d deleted\n", id)

				return err
			})
		},
	}
}
