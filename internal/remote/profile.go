// Package remote dispatches training jobs to a GPU host over ssh and rsync
// and persists the connection profile used to reach it.
//
// A dispatch is five steps run strictly in order: create the job directory,
// push the frames, run the remote pipeline, pull the exported splats, and
// count what arrived. Only the first two are fatal; once the frames are on
// the host, results are always pulled back even if the remote run failed.
package remote

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultBasePath is the job root on the worker when none is configured.
const DefaultBasePath = "/c/splat/jobs"

// ErrIncompleteProfile means the host or user is missing after merging.
var ErrIncompleteProfile = errors.New("remote profile needs a host and a user")

// Profile identifies a worker account and its job root.
type Profile struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	BasePath string `json:"remote_path"`
}

// Target returns "user@host" for ssh and rsync.
func (p Profile) Target() string {
	return p.User + "@" + p.Host
}

// Validate reports ErrIncompleteProfile when host or user is empty.
func (p Profile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Host) == "" {
		missing = append(missing, "--remote-host")
	}
	if strings.TrimSpace(p.User) == "" {
		missing = append(missing, "--remote-user")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrIncompleteProfile, strings.Join(missing, ", "))
	}
	return nil
}

// JobPath joins the base path and a job ID with forward slashes, as the
// worker's shell expects.
func (p Profile) JobPath(id string) string {
	return path.Join(p.BasePath, id)
}

// Merge combines an explicit profile (CLI flags) with a stored one, field by
// field: a non-empty explicit value wins. stored may be nil. An empty base
// path falls back to DefaultBasePath.
func Merge(explicit Profile, stored *Profile) Profile {
	out := explicit
	if stored != nil {
		if out.Host == "" {
			out.Host = stored.Host
		}
		if out.User == "" {
			out.User = stored.User
		}
		if out.BasePath == "" {
			out.BasePath = stored.BasePath
		}
	}
	if out.BasePath == "" {
		out.BasePath = DefaultBasePath
	}
	return out
}
