// ABOUTME: User tools: profiles, lookup by id or username, search and status

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type noArgs struct{}

type userArgs struct {
	UserID string `json:"user_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character user identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

type usernameArgs struct {
	Username string `json:"username" validate:"required,min=1,max=64,username" jsonschema:"minLength=1,maxLength=64,pattern=^[a-zA-Z][a-zA-Z0-9._-]*$" jsonschema_description:"Mattermost username"`
}

type searchUsersArgs struct {
	Term   string `json:"term" validate:"required,min=1,max=256" jsonschema:"minLength=1,maxLength=256" jsonschema_description:"Search term"`
	TeamID string `json:"team_id,omitempty" validate:"omitempty,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"Limit search to a specific team"`
}

// UsersPack returns the user tools.
func UsersPack() *Pack {
	return &Pack{
		ID: "users",
		Tools: []*Tool{
			newTool("get_me", CapabilityRead, readOnly(), []string{tagUser},
				"Get the current authenticated user's profile.\n\n"+
					"Returns user information including username, email, and status.\n"+
					"Use to get your own user ID for operations like create_direct_channel.",
				func(ctx context.Context, c *mattermost.Client, _ noArgs) (any, error) {
					return c.GetMe(ctx)
				}),
			newTool("get_user", CapabilityRead, readOnly(), []string{tagUser},
				"Get a user's profile by their ID.\n\n"+
					"Returns user information including username, email, and status.\n"+
					"Use when you have the user ID.\n"+
					"For lookup by @username, use get_user_by_username instead.",
				func(ctx context.Context, c *mattermost.Client, a userArgs) (any, error) {
					return c.GetUser(ctx, a.UserID)
				}),
			newTool("get_user_by_username", CapabilityRead, readOnly(), []string{tagUser},
				"Get a user's profile by their username.\n\n"+
					"Returns user information including username, email, and status.\n"+
					"Use when you know the @username but not the user ID.\n"+
					"For lookup by ID, use get_user instead.",
				func(ctx context.Context, c *mattermost.Client, a usernameArgs) (any, error) {
					return c.GetUserByUsername(ctx, a.Username)
				}),
			newTool("search_users", CapabilityRead, readOnly(), []string{tagUser},
				"Search for users by name or username.\n\n"+
					"Searches across username, first name, last name, and nickname.\n"+
					"Use to find users when you don't know their exact username or ID.",
				func(ctx context.Context, c *mattermost.Client, a searchUsersArgs) (any, error) {
					return c.SearchUsers(ctx, a.Term, a.TeamID)
				}),
			newTool("get_user_status", CapabilityRead, readOnly(), []string{tagUser},
				"Get a user's online/offline status.\n\n"+
					"Returns: online, away, dnd (do not disturb), or offline.\n"+
					"Use to check if a user is available before sending a message.",
				func(ctx context.Context, c *mattermost.Client, a userArgs) (any, error) {
					return c.GetUserStatus(ctx, a.UserID)
				}),
		},
	}
}
