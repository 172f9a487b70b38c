package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/database"
)

const userColumns = `id, username, password, pfp_url, bio, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.PfpURL, &u.Bio, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows, err error) ([]*models.User, error) {
	if err != nil {
		return nil, translate("query users", err)
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("scan user", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (username, password, pfp_url, bio)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := s.db.QueryRow(ctx, q, u.Username, u.Password, u.PfpURL, u.Bio).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate("create user", err)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, translate("get user", err)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	return u, translate("get user by username", err)
}

func (s *Store) GetUsers(ctx context.Context, ids []int64) ([]*models.User, error) {
	return collectUsers(s.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, ids))
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET username = $2, password = $3, pfp_url = $4, bio = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, q, u.ID, u.Username, u.Password, u.PfpURL, u.Bio).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	return translate("update user", err)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return affected(tag, err, "delete user")
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	return collectUsers(s.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE username ILIKE $1 ORDER BY id`, likePattern(query)))
}

const orgColumns = `id, name, parent_id, created_at, updated_at`

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.ParentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrgs(rows pgx.Rows, err error) ([]*models.Organization, error) {
	if err != nil {
		return nil, translate("query organizations", err)
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, translate("scan organization", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (s *Store) CreateOrganization(ctx context.Context, o *models.Organization) error {
	const q = `INSERT INTO organizations (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	err := s.db.QueryRow(ctx, q, o.Name, o.ParentID).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return translate("create organization", err)
}

func (s *Store) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	o, err := scanOrg(s.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	return o, translate("get organization", err)
}

func (s *Store) GetOrganizations(ctx context.Context, ids []int64) ([]*models.Organization, error) {
	return collectOrgs(s.db.Query(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ANY($1) ORDER BY id`, ids))
}

// orgTreeLock is the advisory lock key held while an organization changes parent.
const orgTreeLock int64 = 0x6f72677472 // "orgtr"

const orgAncestryQuery = `WITH RECURSIVE ancestors(id, parent_id) AS (
		SELECT id, parent_id FROM organizations WHERE id = $2
		UNION
		SELECT o.id, o.parent_id FROM organizations o JOIN ancestors a ON o.id = a.parent_id
	)
	SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $2),
		EXISTS (SELECT 1 FROM ancestors WHERE id = $1)`

func (s *Store) UpdateOrganization(ctx context.Context, id int64, patch store.OrganizationPatch) (*models.Organization, error) {
	if patch.ParentID == nil {
		return patchOrganization(ctx, s.db, id, patch)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, translate("begin organization update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orgTreeLock); err != nil {
		return nil, translate("lock organization tree", err)
	}
	if *patch.ParentID != 0 {
		var parentExists, cyclic bool
		if err := tx.QueryRow(ctx, orgAncestryQuery, id, *patch.ParentID).Scan(&parentExists, &cyclic); err != nil {
			return nil, translate("check organization ancestry", err)
		}
		if !parentExists {
			return nil, store.ErrNotFound
		}
		if cyclic {
			return nil, store.ErrCycle
		}
	}
	o, err := patchOrganization(ctx, tx, id, patch)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translate("commit organization update", err)
	}
	return o, nil
}

// patchOrganization writes only the set fields.
func patchOrganization(ctx context.Context, db database.Querier, id int64, patch store.OrganizationPatch) (*models.Organization, error) {
	const q = `UPDATE organizations
		SET name = COALESCE($2, name), parent_id = COALESCE($3, parent_id), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orgColumns
	o, err := scanOrg(db.QueryRow(ctx, q, id, patch.Name, patch.ParentID))
	return o, translate("update organization", err)
}

func (s *Store) DeleteOrganization(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return affected(tag, err, "delete organization")
}

func (s *Store) ListOrganizationsByParent(ctx context.Context, parentID int64) ([]*models.Organization, error) {
	return collectOrgs(s.db.Query(ctx, `SELECT `+orgColumns+` FROM organizations WHERE parent_id = $1 ORDER BY id`, parentID))
}

func (s *Store) SearchOrganizations(ctx context.Context, query string) ([]*models.Organization, error) {
	return collectOrgs(s.db.Query(ctx, `SELECT `+orgColumns+` FROM organizations WHERE parent_id = 0 AND name ILIKE $1 ORDER BY id`, likePattern(query)))
}

func (s *Store) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	const q = `INSERT INTO feedback (user_id, content, created_at)
		VALUES ($1, $2, COALESCE($3::timestamptz, NOW()))
		RETURNING id, created_at`
	var at any
	if !f.CreatedAt.IsZero() {
		at = f.CreatedAt
	}
	err := s.db.QueryRow(ctx, q, f.UserID, f.Content, at).Scan(&f.ID, &f.CreatedAt)
	return translate("create feedback", err)
}
