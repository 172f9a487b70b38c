package accounts

import (
	"context"

	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
)

// Authors resolves display identities for content authors. Users are tried
// first, then organizations; ids matching neither become UnknownAuthorName.
// The returned map holds an entry for every requested id.
func (s *Service) Authors(ctx context.Context, ids []int64) (map[int64]models.Author, error) {
	ids = lo.Uniq(ids)
	out := make(map[int64]models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = models.Author{ID: u.ID, Name: u.Username, PfpURL: u.PfpURL}
	}
	rest := lo.Filter(ids, func(id int64, _ int) bool {
		_, ok := out[id]
		return !ok
	})
	if len(rest) > 0 {
		orgs, err := s.store.GetOrganizations(ctx, rest)
		if err != nil {
			return nil, err
		}
		for _, o := range orgs {
			out[o.ID] = models.Author{ID: o.ID, Name: o.Name}
		}
	}
	for _, id := range rest {
		if _, ok := out[id]; !ok {
			out[id] = models.Author{ID: id, Name: models.UnknownAuthorName}
		}
	}
	return out, nil
}
