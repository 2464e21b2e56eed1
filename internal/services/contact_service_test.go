package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContactFixture(t *testing.T) (*ContactService, string, string) {
	t.Helper()
	f := newAccountFixture(t, 10)
	a := f.registerVerified(t, "owner", "owner@example.com", "pw")
	b := f.registerVerified(t, "other", "other@example.com", "pw")

	svc := NewContactService(f.db)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc.now = clock.Now
	return svc, a.Account.ID, b.Account.ID
}

func TestCreateContact(t *testing.T) {
	svc, owner, _ := newContactFixture(t)
	ctx := context.Background()

	c, err := svc.CreateContact(ctx, owner, ContactInput{Name: " Ann ", Email: "ann@example.com", Phone: "555-0100"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ann", c.Name)
	assert.Equal(t, owner, c.OwnerID)
	assert.False(t, c.Favorite)

	got, err := svc.GetContact(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = svc.CreateContact(ctx, owner, ContactInput{Name: "A", Email: "ann@example.com", Phone: "1"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.CreateContact(ctx, owner, ContactInput{Name: "Ann", Email: "bad", Phone: "1"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.CreateContact(ctx, owner, ContactInput{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestContacts_ScopedToOwner(t *testing.T) {
	svc, owner, other := newContactFixture(t)
	ctx := context.Background()

	c, err := svc.CreateContact(ctx, owner, ContactInput{Name: "Ann", Email: "ann@example.com", Phone: "1"})
	require.NoError(t, err)

	_, err = svc.GetContact(ctx, other, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	name := "Mallory"
	_, err = svc.UpdateContact(ctx, other, c.ID, models.ContactPatch{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteContact(ctx, other, c.ID), common.ErrNotFound)

	page, err := svc.ListContacts(ctx, other, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Docs)
	assert.Equal(t, 0, page.TotalDocs)
}

func TestListContacts_Pagination(t *testing.T) {
	svc, owner, _ := newContactFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateContact(ctx, owner, ContactInput{
			Name: fmt.Sprintf("Contact %d", i), Email: fmt.Sprintf("c%d@example.com", i), Phone: "1",
		})
		require.NoError(t, err)
	}

	page, err := svc.ListContacts(ctx, owner, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalDocs)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, "Contact 2", page.Docs[0].Name)
	assert.Equal(t, "Contact 3", page.Docs[1].Name)

	page, err = svc.ListContacts(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Len(t, page.Docs, 5)

	page, err = svc.ListContacts(ctx, owner, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, page.Limit)
}

func TestUpdateContactAndFavorite(t *testing.T) {
	svc, owner, _ := newContactFixture(t)
	ctx := context.Background()

	c, err := svc.CreateContact(ctx, owner, ContactInput{Name: "Ann", Email: "ann@example.com", Phone: "1"})
	require.NoError(t, err)

	_, err = svc.UpdateContact(ctx, owner, c.ID, models.ContactPatch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "missing fields")

	bad := "not-an-email"
	_, err = svc.UpdateContact(ctx, owner, c.ID, models.ContactPatch{Email: &bad})
	assert.ErrorIs(t, err, common.ErrValidation)

	phone := "555-0199"
	updated, err := svc.UpdateContact(ctx, owner, c.ID, models.ContactPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "Ann", updated.Name)

	fav, err := svc.SetFavorite(ctx, owner, c.ID, true)
	require.NoError(t, err)
	assert.True(t, fav.Favorite)

	yes, no := true, false
	favorites, err := svc.ListByFavorite(ctx, owner, &yes)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
	others, err := svc.ListByFavorite(ctx, owner, &no)
	require.NoError(t, err)
	assert.Empty(t, others)
	all, err := svc.ListByFavorite(ctx, owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteContact(t *testing.T) {
	svc, owner, _ := newContactFixture(t)
	ctx := context.Background()

	c, err := svc.CreateContact(ctx, owner, ContactInput{Name: "Ann", Email: "ann@example.com", Phone: "1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContact(ctx, owner, c.ID))
	assert.ErrorIs(t, svc.DeleteContact(ctx, owner, c.ID), common.ErrNotFound)
	_, err = svc.GetContact(ctx, owner, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
