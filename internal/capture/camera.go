package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileCamera reads photos from disk. Used by the command line snap mode,
// where access to the file is the only permission that matters.
type FileCamera struct {
	Path string
}

func (c *FileCamera) Permission(ctx context.Context) (bool, error) {
	return true, nil
}

func (c *FileCamera) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (c *FileCamera) Take(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}

// ErrNoPhoto is returned when Take is called before a photo was uploaded
var ErrNoPhoto = errors.New("no photo uploaded")

// UploadCamera receives photos and the permission state from a remote UI.
type UploadCamera struct {
	mu      sync.Mutex
	granted bool
	pending []byte
}

// NewUploadCamera creates an upload camera with permission not yet granted
func NewUploadCamera() *UploadCamera {
	return &UploadCamera{}
}

// SetPermission records the UI's permission answer
func (c *UploadCamera) SetPermission(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granted = granted
}

// Put stages the next photo returned by Take
func (c *UploadCamera) Put(photo []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = photo
}

func (c *UploadCamera) Permission(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted, nil
}

// RequestPermission cannot prompt on its own; the UI answers with a
// permission message and the current state is returned.
func (c *UploadCamera) RequestPermission(ctx context.Context) (bool, error) {
	return c.Permission(ctx)
}

// Take hands out the staged photo once
func (c *UploadCamera) Take(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil, ErrNoPhoto
	}
	photo := c.pending
	c.pending = nil
	return photo, nil
}
