package github

// Repo is the part of a GitHub repository document stackscout reads
type Repo struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	HTMLURL       string   `json:"html_url"`
	Owner         User     `json:"owner"`
	Description   string   `json:"description"`
	Homepage      string   `json:"homepage"`
	DefaultBranch string   `json:"default_branch"`
	Language      string   `json:"language"`
	Topics        []string `json:"topics"`
	Stargazers    int      `json:"stargazers_count"`
	ForksCount    int      `json:"forks_count"`
	License       *License `json:"license"`
}

// User is the owner of a repository
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// License is a repository's detected license
type License struct {
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

type searchResult struct {
	Items []Repo `json:"items"`
}
