package usecase

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAddressFixture(t *testing.T) (*AddressUsecase, *fakeAddressRepo) {
	t.Helper()

	repo := &fakeAddressRepo{}
	return NewAddressUsecase(repo), repo
}

func validAddressInput() AddressInput {
	return AddressInput{
		Label:         "Home",
		StreetAddress: "1 Main St",
		City:          "Springfield",
		State:         "IL",
		ZipCode:       "62704",
	}
}

// 1件目は自動でデフォルトになる。2件目はならない。
func TestAddressCreate_FirstBecomesDefault(t *testing.T) {
	uc, _ := newAddressFixture(t)
	ctx := context.Background()

	first, err := uc.Create(ctx, "u1", validAddressInput())
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.NotEmpty(t, first.ID)

	in := validAddressInput()
	in.Label = "Work"
	second, err := uc.Create(ctx, "u1", in)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
}

func TestAddressCreate_MissingFieldsRejected(t *testing.T) {
	uc, _ := newAddressFixture(t)

	in := validAddressInput()
	in.StreetAddress = "   "

	_, err := uc.Create(context.Background(), "u1", in)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestAddressUpdate_ReplacesFields(t *testing.T) {
	uc, _ := newAddressFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, "u1", validAddressInput())
	require.NoError(t, err)

	in := validAddressInput()
	in.StreetAddress = "2 Elm St"

	updated, err := uc.Update(ctx, "u1", created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "2 Elm St", updated.StreetAddress)
}

// 他人の住所は404扱い
func TestAddressUpdate_ForeignAddressIsNotFound(t *testing.T) {
	uc, _ := newAddressFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, "u1", validAddressInput())
	require.NoError(t, err)

	_, err = uc.Update(ctx, "someone-else", created.ID, validAddressInput())
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestAddressDelete_ForeignAddressIsNotFound(t *testing.T) {
	uc, repo := newAddressFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, "u1", validAddressInput())
	require.NoError(t, err)

	err = uc.Delete(ctx, "someone-else", created.ID)
	assertHTTPStatus(t, err, http.StatusNotFound)
	assert.Len(t, repo.addresses, 1)

	require.NoError(t, uc.Delete(ctx, "u1", created.ID))
	assert.Empty(t, repo.addresses)
}

// デフォルトはユーザーごとに高々1件
func TestAddressSetDefault_MovesFlag(t *testing.T) {
	uc, _ := newAddressFixture(t)
	ctx := context.Background()

	first, err := uc.Create(ctx, "u1", validAddressInput())
	require.NoError(t, err)

	in := validAddressInput()
	in.Label = "Work"
	second, err := uc.Create(ctx, "u1", in)
	require.NoError(t, err)

	require.NoError(t, uc.SetDefault(ctx, "u1", second.ID))

	items, err := uc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]model.Address{items[0].ID: items[0], items[1].ID: items[1]}
	assert.False(t, byID[first.ID].IsDefault)
	assert.True(t, byID[second.ID].IsDefault)
}
