package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
)

// GetOrganisation retrieves an organisation by ID.
func (s *SQLiteStorage) GetOrganisation(ctx context.Context, id string) (*model.Organisation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getOrganisationTx(ctx, s.db, id)
}

func getOrganisationTx(ctx context.Context, db dbtx, id string) (*model.Organisation, error) {
	query := `SELECT id, name, default_role_type, created_at FROM organisations WHERE id = ?`

	var org model.Organisation
	var roleType string
	err := db.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &roleType, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFoundf("organisation %s", id)
		}
		return nil, common.Storagef(err, "failed to get organisation")
	}

	org.DefaultRoleType = model.RoleType(roleType)
	return &org, nil
}

// SaveOrganisation inserts or replaces an organisation.
func (s *SQLiteStorage) SaveOrganisation(ctx context.Context, org *model.Organisation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveOrganisationTx(ctx, s.db, org)
}

func saveOrganisationTx(ctx context.Context, db dbtx, org *model.Organisation) error {
	if org == nil {
		return fmt.Errorf("%w: organisation", ErrNilParameter)
	}
	if err := validateString(org.ID, "organisation ID"); err != nil {
		return err
	}
	if err := validateString(org.Name, "organisation name"); err != nil {
		return err
	}

	roleType := org.DefaultRoleType
	if roleType == "" {
		roleType = model.RoleSupplier
	}
	if !roleType.Valid() {
		return fmt.Errorf("%w: unknown role type %q", ErrInvalidOrganisation, roleType)
	}

	query := `
		INSERT INTO organisations (id, name, default_role_type)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			default_role_type = excluded.default_role_type
	`

	if _, err := db.ExecContext(ctx, query, org.ID, org.Name, string(roleType)); err != nil {
		return common.Storagef(err, "failed to save organisation")
	}

	return nil
}

// ListOrganisations returns all organisations ordered by name.
func (s *SQLiteStorage) ListOrganisations(ctx context.Context) ([]model.Organisation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listOrganisationsTx(ctx, s.db)
}

func listOrganisationsTx(ctx context.Context, db dbtx) ([]model.Organisation, error) {
	query := `SELECT id, name, default_role_type, created_at FROM organisations ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.Storagef(err, "failed to list organisations")
	}
	defer func() { _ = rows.Close() }()

	var orgs []model.Organisation
	for rows.Next() {
		var org model.Organisation
		var roleType string
		if err := rows.Scan(&org.ID, &org.Name, &roleType, &org.CreatedAt); err != nil {
			return nil, common.Storagef(err, "failed to scan organisation")
		}
		org.DefaultRoleType = model.RoleType(roleType)
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Storagef(err, "error iterating organisations")
	}

	return orgs, nil
}
