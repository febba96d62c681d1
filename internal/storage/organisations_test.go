package storage

import (
	"context"
	"testing"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOrganisationUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.SaveOrganisation(ctx, &model.Organisation{
		ID:   "org-ovh",
		Name: "OVH",
	}))

	// Saving the same ID again replaces name and role.
	require.NoError(t, store.SaveOrganisation(ctx, &model.Organisation{
		ID:              "org-ovh",
		Name:            "OVH SAS",
		DefaultRoleType: model.RolePartner,
	}))

	got, err := store.GetOrganisation(ctx, "org-ovh")
	require.NoError(t, err)
	assert.Equal(t, "OVH SAS", got.Name)
	assert.Equal(t, model.RolePartner, got.DefaultRoleType)
}

func TestSaveOrganisationValidates(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.Error(t, store.SaveOrganisation(ctx, nil))
	require.Error(t, store.SaveOrganisation(ctx, &model.Organisation{ID: "", Name: "X"}))
	require.Error(t, store.SaveOrganisation(ctx, &model.Organisation{ID: "x", Name: ""}))

	err := store.SaveOrganisation(ctx, &model.Organisation{
		ID:              "org-1",
		Name:            "Acme",
		DefaultRoleType: "vendor",
	})
	require.ErrorIs(t, err, ErrInvalidOrganisation)
}

func TestListOrganisationsOrdersByName(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.SaveOrganisation(ctx, &model.Organisation{ID: "b", Name: "Zeta Corp"}))
	require.NoError(t, store.SaveOrganisation(ctx, &model.Organisation{ID: "a", Name: "Acme"}))

	orgs, err := store.ListOrganisations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme", orgs[0].Name)
	assert.Equal(t, "Zeta Corp", orgs[1].Name)
}

func TestGetOrganisationNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetOrganisation(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}
