package service

import (
	"context"

	"stackscout/internal/adapters/analyzer"
	gh "stackscout/internal/adapters/ingest/github"
	"stackscout/internal/services/analysis/domain"
	catalog "stackscout/internal/services/catalog/domain"
)

// ReportAnalyzer adapts the analyzer subprocess to StackAnalyzer
type ReportAnalyzer struct {
	A *analyzer.Analyzer
}

// Analyze returns the normalized tags of every component
func (r ReportAnalyzer) Analyze(ctx context.Context, dir string) ([][]string, error) {
	rep, err := r.A.Analyze(ctx, dir)
	if err != nil {
		return nil, err
	}
	return rep.Groups(), nil
}

// GitHubMetadata adapts the GitHub client to MetadataSource
type GitHubMetadata struct {
	C *gh.Client
}

// QueryRepository fetches owner, counters, topics and license of a repository
func (g GitHubMetadata) QueryRepository(ctx context.Context, repoURL string) (domain.RepositoryMeta, error) {
	owner, name, err := catalog.SplitFullName(repoURL)
	if err != nil {
		return domain.RepositoryMeta{}, err
	}
	r, err := g.C.RepoByFullName(ctx, owner, name)
	if err != nil {
		return domain.RepositoryMeta{}, err
	}
	return MetaFromRepo(r), nil
}

// MetaFromRepo maps a GitHub repository document to RepositoryMeta
func MetaFromRepo(r gh.Repo) domain.RepositoryMeta {
	m := domain.RepositoryMeta{
		FullName:      r.FullName,
		Owner:         r.Owner.Login,
		OwnerAvatar:   r.Owner.AvatarURL,
		Description:   r.Description,
		Homepage:      r.Homepage,
		Stars:         r.Stargazers,
		Forks:         r.ForksCount,
		Language:      r.Language,
		Topics:        r.Topics,
		DefaultBranch: r.DefaultBranch,
	}
	if r.License != nil {
		m.License = r.License.SPDXID
		if m.License == "" || m.License == "NOASSERTION" {
			m.License = r.License.Name
		}
	}
	return m
}
