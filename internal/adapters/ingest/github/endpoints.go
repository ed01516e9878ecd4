package github

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

const maxPerPage = 100

// RepoByFullName fetches owner/name
func (c *Client) RepoByFullName(ctx context.Context, owner, name string) (Repo, error) {
	var out Repo
	err := c.getJSON(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(name), &out)
	return out, err
}

// CreatedSince returns the most starred repositories created after since, at most limit of them
func (c *Client) CreatedSince(ctx context.Context, since time.Time, limit int) ([]Repo, error) {
	if limit <= 0 || limit > maxPerPage {
		limit = maxPerPage
	}
	q := url.Values{}
	q.Set("q", "created:>"+since.UTC().Format(time.DateOnly))
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(limit))

	var res searchResult
	if err := c.getJSON(ctx, "/search/repositories?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	if res.Items == nil {
		return []Repo{}, nil
	}
	return res.Items, nil
}
