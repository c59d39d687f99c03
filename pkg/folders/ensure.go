// Package folders builds folder hierarchies in a workspace. Paths are
// ensured strictly left-to-right since a folder cannot be created before
// its parent exists, and each creation is followed by a settle wait to
// ride out the remote system's eventual-consistency window.
package folders

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/fabric"
	"gitlab.com/tozd/go/errors"
)

// SettlePolicy says how long to block after a creation call before issuing
// the next dependent call. The sleep func is injectable so tests can record
// waits instead of taking them.
type SettlePolicy struct {
	After time.Duration
	Sleep func(time.Duration)
}

// DefaultFolderSettle matches the delay the remote system has been observed
// to need after folder creation.
func DefaultFolderSettle() SettlePolicy {
	return SettlePolicy{After: 2 * time.Second, Sleep: time.Sleep}
}

// DefaultItemSettle is the longer delay needed after item creation.
func DefaultItemSettle() SettlePolicy {
	return SettlePolicy{After: 10 * time.Second, Sleep: time.Sleep}
}

// Wait blocks for the settle window.
func (p SettlePolicy) Wait() {
	if p.After <= 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(p.After)
}

// Ensurer creates missing folders in one target workspace.
type Ensurer struct {
	Client      fabric.Client
	WorkspaceID string
	Settle      SettlePolicy
}

// EnsurePath makes sure every segment of a slash-delimited relative path
// exists as a folder, creating missing segments top-down, and returns the
// id of the leaf folder. memo maps path prefixes to known folder ids and is
// updated in place; it is shared across artifacts within one run. An empty
// path resolves to no folder ("" id, nil error). If any segment fails to
// create, the whole resolution fails and no id is returned.
func (e *Ensurer) EnsurePath(ctx context.Context, path string, memo map[string]string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		return "", nil
	}

	var (
		currentPath string
		parentID    string
	)
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if currentPath == "" {
			currentPath = part
		} else {
			currentPath = currentPath + "/" + part
		}

		if id, ok := memo[currentPath]; ok {
			parentID = id
			logger.Debug().Str("path", currentPath).Str("id", id).Msg("folder already exists")
			continue
		}

		folder, err := e.Client.CreateFolder(ctx, e.WorkspaceID, part, parentID)
		if err != nil {
			return "", errors.Errorf("ensuring folder path %q at segment %q: %w", path, part, err)
		}
		memo[currentPath] = folder.ID
		parentID = folder.ID
		e.Settle.Wait()
	}

	return parentID, nil
}
