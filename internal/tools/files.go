// ABOUTME: File tools: upload from a local path, file metadata and public links
// ABOUTME: Upload path checks happen in the client before any bytes are read

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type uploadFileArgs struct {
	ChannelID string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	FilePath  string `json:"file_path" validate:"required" jsonschema:"minLength=1" jsonschema_description:"Local path to the file to upload"`
	Filename  string `json:"filename,omitempty" jsonschema_description:"Override filename"`
}

type fileArgs struct {
	FileID string `json:"file_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character file identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

func FilesPack() *Pack {
	return &Pack{
		ID: "files",
		Tools: []*Tool{
			newTool("upload_file", CapabilityCreate, additive(), []string{tagFile},
				"Upload a file to a channel.\n\n"+
					"The file will be attached to messages in the specified channel.\n"+
					"Returns file ID that can be used when posting messages with file_ids parameter.",
				func(ctx context.Context, c *mattermost.Client, a uploadFileArgs) (any, error) {
					return c.UploadFile(ctx, a.ChannelID, a.FilePath, a.Filename)
				}),
			newTool("get_file_info", CapabilityRead, readOnly(), []string{tagFile},
				"Get metadata about an uploaded file.\n\n"+
					"Returns file name, size, type, and upload information.\n"+
					"Use to check file details before downloading or sharing.",
				func(ctx context.Context, c *mattermost.Client, a fileArgs) (any, error) {
					return c.GetFileInfo(ctx, a.FileID)
				}),
			newTool("get_file_link", CapabilityRead, readOnly(), []string{tagFile},
				"Get a public link to download a file.\n\n"+
					"Link can be shared with users who don't have Mattermost access.\n"+
					"Link may expire based on server settings.",
				func(ctx context.Context, c *mattermost.Client, a fileArgs) (any, error) {
					return c.GetFileLink(ctx, a.FileID)
				}),
		},
	}
}
