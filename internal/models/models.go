package models

// RepoRef identifies a GitHub repository by owner and name.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// RepoMetadata is the subset of the GitHub repository record the
// summarizer cares about. Fields absent upstream stay zero-valued.
type RepoMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	OpenIssues  int    `json:"open_issues_count"`
}

// Summary is the fixed-shape record the model must reply with.
type Summary struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// SummarizeRequest is the POST /summarize body.
type SummarizeRequest struct {
	GitHubURL string `json:"github_url"`
}

// SummaryResponse is the successful POST /summarize response.
type SummaryResponse struct {
	Repository   string   `json:"repository"`
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// ErrorResponse is the uniform envelope for every non-2xx response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
