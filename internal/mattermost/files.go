// ABOUTME: File upload and file metadata resource methods
// ABOUTME: Uploads validate the local path, read it once, and resend the same bytes on every retry

package mattermost

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// resolveUploadPath returns the canonical path of a regular, non-symlink file.
// Every failure is a *FileValidationError carrying the caller's path.
func resolveUploadPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		resolved, err = filepath.Abs(resolved)
	}
	if err != nil {
		return "", &FileValidationError{Path: path, Reason: ReasonUnresolvable, Err: err}
	}

	// The original argument is checked, since EvalSymlinks already followed the link.
	info, err := os.Lstat(path)
	if err != nil {
		return "", &FileValidationError{Path: path, Reason: ReasonUnresolvable, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", &FileValidationError{Path: path, Reason: ReasonSymlink}
	}

	info, err = os.Stat(resolved)
	if err != nil {
		return "", &FileValidationError{Path: path, Reason: ReasonUnresolvable, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &FileValidationError{Path: path, Reason: ReasonNotRegular}
	}
	return resolved, nil
}

// UploadFile uploads a local file to a channel. filename defaults to the
// resolved file's base name. The file is not attached to any post until its
// id is passed in CreatePostRequest.FileIDs.
func (c *Client) UploadFile(ctx context.Context, channelID, path, filename string) (*FileUploadResponse, error) {
	resolved, err := resolveUploadPath(path)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = filepath.Base(resolved)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	return c.UploadBytes(ctx, channelID, filename, content)
}

// UploadBytes uploads in-memory content as a file named filename.
func (c *Client) UploadBytes(ctx context.Context, channelID, filename string, content []byte) (*FileUploadResponse, error) {
	raw, err := c.execute(ctx, http.MethodPost, "/files", func(r *resty.Request) {
		r.SetQueryParam("channel_id", channelID).
			SetQueryParam("filename", filename).
			SetFormData(map[string]string{"channel_id": channelID}).
			SetFileReader("files", filename, bytes.NewReader(content))
	})
	return decode[*FileUploadResponse](raw, err)
}

func (c *Client) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	return decode[*FileInfo](c.Get(ctx, "/files/"+seg(fileID)+"/info", nil))
}

// GetFileLink returns a public link. Public links must be enabled on the server.
func (c *Client) GetFileLink(ctx context.Context, fileID string) (*FileLink, error) {
	return decode[*FileLink](c.Get(ctx, "/files/"+seg(fileID)+"/link", nil))
}
