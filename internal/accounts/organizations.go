package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// OrganizationInput creates an organization. ParentID 0 makes it a root.
type OrganizationInput struct {
	Name     string `json:"name" binding:"required"`
	ParentID int64  `json:"parent_id"`
}

// UpdateOrganizationInput changes only the fields that are set.
type UpdateOrganizationInput struct {
	Name     *string `json:"name"`
	ParentID *int64  `json:"parent_id"`
}

// CreateOrganization inserts an organization under an existing parent.
func (s *Service) CreateOrganization(ctx context.Context, in OrganizationInput) result.Result[*models.Organization] {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return result.Fail[*models.Organization](result.KindValidation, "organization name required")
	}
	if in.ParentID != 0 {
		if _, err := s.store.GetOrganization(ctx, in.ParentID); err != nil {
			return store.Failure[*models.Organization](s.logger, "get parent organization", err, "Parent organization not found")
		}
	}
	org := &models.Organization{Name: name, ParentID: in.ParentID}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return store.Failure[*models.Organization](s.logger, "create organization", err, "Organization already exists")
	}
	return result.OK("Organization created successfully", org)
}

func (s *Service) GetOrganization(ctx context.Context, id int64) result.Result[*models.Organization] {
	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return store.Failure[*models.Organization](s.logger, "get organization", err, "Organization not found")
	}
	return result.OK("Organization found", org)
}

// UpdateOrganization applies the set fields of in. A new parent that would
// make the organization its own ancestor is rejected.
func (s *Service) UpdateOrganization(ctx context.Context, id int64, in UpdateOrganizationInput) result.Result[*models.Organization] {
	patch := store.OrganizationPatch{ParentID: in.ParentID}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return result.Fail[*models.Organization](result.KindValidation, "organization name cannot be empty")
		}
		patch.Name = &name
	}
	if in.ParentID != nil && *in.ParentID == id {
		return result.Fail[*models.Organization](result.KindValidation, "organization cannot be its own ancestor")
	}
	if _, err := s.store.GetOrganization(ctx, id); err != nil {
		return store.Failure[*models.Organization](s.logger, "get organization", err, "Organization not found")
	}
	org, err := s.store.UpdateOrganization(ctx, id, patch)
	if errors.Is(err, store.ErrCycle) {
		return result.Fail[*models.Organization](result.KindValidation, "organization cannot be its own ancestor")
	}
	if err != nil {
		return store.Failure[*models.Organization](s.logger, "update organization", err, "Parent organization not found")
	}
	return result.OK("Organization updated successfully", org)
}

func (s *Service) DeleteOrganization(ctx context.Context, id int64) result.Result[result.None] {
	if err := s.store.DeleteOrganization(ctx, id); err != nil {
		return store.Failure[result.None](s.logger, "delete organization", err, "Organization not found")
	}
	return result.Done("Organization deleted successfully")
}

// Children returns every descendant of id, breadth first. Each organization
// is visited once, so a malformed cyclic graph still terminates.
func (s *Service) Children(ctx context.Context, id int64) result.Result[[]*models.Organization] {
	if _, err := s.store.GetOrganization(ctx, id); err != nil {
		return store.Failure[[]*models.Organization](s.logger, "get organization", err, "Organization not found")
	}
	visited := map[int64]bool{id: true}
	queue := []int64{id}
	out := []*models.Organization{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := s.store.ListOrganizationsByParent(ctx, cur)
		if err != nil {
			return store.Failure[[]*models.Organization](s.logger, "list child organizations", err, "")
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return result.OK("Child organizations found", out)
}

// ChildIDs is Children reduced to ids.
func (s *Service) ChildIDs(ctx context.Context, id int64) result.Result[[]int64] {
	r := s.Children(ctx, id)
	if !r.Success {
		return result.Recast[[]int64](r)
	}
	return result.OK(r.Message, lo.Map(r.Data, func(o *models.Organization, _ int) int64 { return o.ID }))
}

// Exists reports whether id names a live user or organization.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := s.AccountKind(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
