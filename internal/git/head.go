package git

import (
	"github.com/go-git/go-git/v5"
)

// ReadHead returns the HEAD commit hash and branch name of the repository at repoPath.
// The branch is empty for a detached HEAD.
func ReadHead(repoPath string) (commit, branch string, err error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", "", ClassifyGitError(err, "open", repoPath)
	}
	ref, err := repository.Head()
	if err != nil {
		return "", "", ClassifyGitError(err, "head", repoPath)
	}
	if ref.Name().IsBranch() {
		branch = ref.Name().Short()
	}
	return ref.Hash().String(), branch, nil
}
