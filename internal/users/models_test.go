package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPickAccess(t *testing.T) {
	list := []CompanyAccess{
		{CompanyID: "c-1", Role: "viewer"},
		{CompanyID: "c-2", Role: "manager", IsDefault: true},
	}

	a, ok := PickAccess(list, "")
	require.True(t, ok)
	assert.Equal(t, "c-2", a.CompanyID)

	a, ok = PickAccess(list, "c-1")
	require.True(t, ok)
	assert.Equal(t, "viewer", a.Role)

	_, ok = PickAccess(list, "c-9")
	assert.False(t, ok)

	_, ok = PickAccess(nil, "")
	assert.False(t, ok)

	a, ok = PickAccess(list[:1], "")
	require.True(t, ok)
	assert.Equal(t, "c-1", a.CompanyID)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestRejectPassword(t *testing.T) {
	assert.False(t, RejectPassword("no-such-account"))
	assert.False(t, RejectPassword(""))

	cost, err := bcrypt.Cost(missingUserHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddCompany(Company{ID: "c-1", Code: "ACME", Name: "Acme", IsActive: true})
	repo.AddCompany(Company{ID: "c-2", Code: "OLD", Name: "Closed", IsActive: false})

	require.NoError(t, repo.Create(ctx, User{ID: "u-1", Username: "jdoe", Email: "j@example.com"},
		&CompanyAccess{CompanyID: "c-1", Role: RoleMember, IsDefault: true}))
	repo.Grant(CompanyAccess{UserID: "u-1", CompanyID: "c-2", Role: "viewer"})

	err := repo.Create(ctx, User{ID: "u-2", Username: "other", Email: "J@example.com"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := repo.FindByUsername(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = repo.FindByID(ctx, "u-2")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := repo.FindCompanyByCode(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)

	list, err := repo.ListAccess(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ACME", list[0].CompanyCode)
}
