package collaborators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

type memStore struct {
	rows     map[string]store.Collaborator
	lastBase string
}

func (m *memStore) ListCollaborators(_ context.Context, baseID string, _ bool) ([]store.Collaborator, error) {
	m.lastBase = baseID
	var out []store.Collaborator
	for _, c := range m.rows {
		if c.BaseID == baseID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCollaborator(_ context.Context, id string) (store.Collaborator, error) {
	c, ok := m.rows[id]
	if !ok {
		return store.Collaborator{}, store.ErrNotFound
	}
	return c, nil
}

func (m *memStore) CreateCollaborators(_ context.Context, cs []*store.Collaborator) error {
	for _, c := range cs {
		c.ID = c.Name
		c.Active = true
		m.rows[c.ID] = *c
	}
	return nil
}

func (m *memStore) UpdateCollaborator(_ context.Context, c *store.Collaborator) error {
	m.rows[c.ID] = *c
	return nil
}

func (m *memStore) GetBase(_ context.Context, id string) (store.Base, error) {
	if id == "b1" || id == "b2" {
		return store.Base{ID: id}, nil
	}
	return store.Base{}, store.ErrNotFound
}

func principal(t *testing.T, role authz.Role, base string) auth.Principal {
	t.Helper()
	caps, err := authz.Resolve(role, nil)
	require.NoError(t, err)
	return &auth.BasePrincipal{ID: "p", Role: role, BaseID: base, TeamID: "t1", Capabilities: caps}
}

func TestCleanNames(t *testing.T) {
	got, err := CleanNames([]string{"  Ana  Souza ", "", "\t", "Bia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Souza", "Bia"}, got)

	_, err = CleanNames([]string{" ", ""})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateBatchAndEdit(t *testing.T) {
	ms := &memStore{rows: map[string]store.Collaborator{}}
	svc := NewService(ms, nil)
	ctx := context.Background()
	sci := principal(t, authz.RoleSCIManager, "b1")

	created, err := svc.Create(ctx, sci, "b1", []string{"Ana", " Bia "})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Bia", created[1].Name)

	_, err = svc.Create(ctx, sci, "b2", []string{"Caio"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, principal(t, authz.RoleManager, ""), "b9", []string{"Caio"})
	assert.ErrorIs(t, err, ErrInvalid)

	blank := "  "
	_, err = svc.Edit(ctx, sci, "Ana", Update{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, svc.Deactivate(ctx, sci, "Ana"))
	assert.False(t, ms.rows["Ana"].Active)

	lead := principal(t, authz.RoleTeamLead, "b1")
	assert.ErrorIs(t, svc.Deactivate(ctx, lead, "Bia"), ErrForbidden)
}

func TestListScopesToOwnBase(t *testing.T) {
	ms := &memStore{rows: map[string]store.Collaborator{}}
	svc := NewService(ms, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, principal(t, authz.RoleTeamLead, "b1"), "", false)
	require.NoError(t, err)
	assert.Equal(t, "b1", ms.lastBase)

	_, err = svc.List(ctx, principal(t, authz.RoleTeamLead, "b1"), "b2", false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.List(ctx, principal(t, authz.RoleManager, ""), "b2", true)
	require.NoError(t, err)
	assert.Equal(t, "b2", ms.lastBase)
}
