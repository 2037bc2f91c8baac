// ABOUTME: Team tools: the acting user's teams, team details and members

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type teamArgs struct {
	TeamID string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

type teamMembersArgs struct {
	TeamID  string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Page    int    `json:"page,omitempty" validate:"gte=0" jsonschema:"minimum=0,default=0" jsonschema_description:"Page number (0-indexed)"`
	PerPage *int   `json:"per_page,omitempty" validate:"omitempty,gte=1,lte=200" jsonschema:"minimum=1,maximum=200,default=60" jsonschema_description:"Results per page"`
}

func TeamsPack() *Pack {
	return &Pack{
		ID: "teams",
		Tools: []*Tool{
			newTool("list_teams", CapabilityRead, readOnly(), []string{tagTeam},
				"List teams the current user belongs to.\n\n"+
					"Returns team name, description, and settings.\n"+
					"Use this to discover available teams before listing channels.",
				func(ctx context.Context, c *mattermost.Client, _ noArgs) (any, error) {
					return c.GetTeams(ctx)
				}),
			newTool("get_team", CapabilityRead, readOnly(), []string{tagTeam},
				"Get team details by ID.\n\n"+
					"Returns team name, description, and settings.\n"+
					"Use when you have the team ID and need detailed information.",
				func(ctx context.Context, c *mattermost.Client, a teamArgs) (any, error) {
					return c.GetTeam(ctx, a.TeamID)
				}),
			newTool("get_team_members", CapabilityRead, readOnly(), []string{tagTeam, tagUser},
				"Get members of a team.\n\n"+
					"Returns list of users who belong to the team.\n"+
					"Use to discover users before sending direct messages or mentions.",
				func(ctx context.Context, c *mattermost.Client, a teamMembersArgs) (any, error) {
					return c.GetTeamMembers(ctx, a.TeamID, a.Page, perPage(a.PerPage))
				}),
		},
	}
}
