package github

import (
	"errors"
	"fmt"
	"strings"

	"github.com/repolens/repolens/internal/models"
)

// ErrInvalidURL marks input that does not look like a GitHub repository URL.
var ErrInvalidURL = errors.New("invalid GitHub URL")

// ParseRepoURL extracts owner and repo name from a GitHub repository URL.
// Expected shape: https://github.com/<owner>/<repo>. Pure string work,
// no network.
func ParseRepoURL(raw string) (models.RepoRef, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	parts := strings.Split(trimmed, "/")

	if len(parts) < 5 || !containsHost(parts) {
		return models.RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	owner := parts[len(parts)-2]
	name := strings.TrimSuffix(parts[len(parts)-1], ".git")
	if owner == "" || name == "" {
		return models.RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return models.RepoRef{Owner: owner, Name: name}, nil
}

func containsHost(parts []string) bool {
	for _, p := range parts {
		if strings.EqualFold(p, "github.com") {
			return true
		}
	}
	return false
}
