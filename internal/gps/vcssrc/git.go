// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcssrc

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/gps"
)

// runGit invokes the git binary with args in dir (the process's own
// working directory when dir is empty).
func runGit(ctx context.Context, dir string, args ...string) error {
	_, err := captureGit(ctx, dir, args...)
	return err
}

func captureGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", &gps.GitError{Args: args, Err: errors.New(errOut.String())}
	}
	return out.String(), nil
}

func isGitHub(rawURL string) bool {
	u, err := url.Parse(normalizeGitURL(rawURL))
	if err != nil {
		return false
	}
	return u.Host == "github.com"
}

func githubOwnerRepo(rawURL string) (owner, repo string, err error) {
	u, err := url.Parse(normalizeGitURL(rawURL))
	if err != nil {
		return "", "", &gps.ParseError{Msg: "invalid git url: " + rawURL, Err: err}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", &gps.ParseError{Msg: "not a github.com/<owner>/<repo> url: " + rawURL}
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func normalizeGitURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "git@") {
		// git@github.com:owner/repo.git -> ssh-like scp syntax
		rest := strings.TrimPrefix(rawURL, "git@")
		host, p, ok := strings.Cut(rest, ":")
		if ok {
			return fmt.Sprintf("https://%s%s", host, path.Clean("/"+p))
		}
	}
	return rawURL
}
