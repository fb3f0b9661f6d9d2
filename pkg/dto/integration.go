package dto

type SaveIntegrationRequest struct {
	BaseURL  *string `json:"base_url"`
	Username *string `json:"username"`
	Token    string  `json:"token"`
}

type ImportGitHubRequest struct {
	Repos []string `json:"repos"`
}

type ImportJiraRequest struct {
	Keys []string `json:"keys"`
}
