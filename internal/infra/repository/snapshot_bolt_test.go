package repository

import (
	"path/filepath"
	"testing"

	"app/internal/domain/model"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SnapshotBoltStore {
	t.Helper()

	store, err := NewSnapshotBoltStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotBolt_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	lines := []model.CartLine{
		{
			ID:             "l1",
			CartID:         "c1",
			MenuItemID:     "m1",
			Quantity:       2,
			SpecialRequest: "no onions",
			Item: model.ItemSnapshot{
				Name:        "Margherita",
				UnitPrice:   decimal.RequireFromString("10.00"),
				IsAvailable: true,
			},
		},
		{
			ID:         "l2",
			CartID:     "c1",
			MenuItemID: "m2",
			Quantity:   1,
			Item: model.ItemSnapshot{
				Name:      "Tiramisu",
				UnitPrice: decimal.RequireFromString("4.50"),
			},
		},
	}

	require.NoError(t, store.Save("sess-1", lines))

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "l1", got[0].ID)
	assert.Equal(t, int64(2), got[0].Quantity)
	assert.Equal(t, "no onions", got[0].SpecialRequest)
	assert.Equal(t, "Margherita", got[0].Item.Name)
	assert.True(t, got[0].Item.UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "l2", got[1].ID)
}

func TestSnapshotBolt_LoadMissingKeyIsEmpty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// セッションごとに独立して保存される
func TestSnapshotBolt_SessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("sess-1", []model.CartLine{{ID: "l1", MenuItemID: "m1", Quantity: 1}}))
	require.NoError(t, store.Save("sess-2", []model.CartLine{{ID: "l2", MenuItemID: "m2", Quantity: 2}}))

	got1, err := store.Load("sess-1")
	require.NoError(t, err)
	require.Len(t, got1, 1)
	assert.Equal(t, "l1", got1[0].ID)

	got2, err := store.Load("sess-2")
	require.NoError(t, err)
	require.Len(t, got2, 1)
	assert.Equal(t, "l2", got2[0].ID)
}

// Saveは常に全上書き
func TestSnapshotBolt_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("sess-1", []model.CartLine{
		{ID: "l1", MenuItemID: "m1", Quantity: 1},
		{ID: "l2", MenuItemID: "m2", Quantity: 2},
	}))
	require.NoError(t, store.Save("sess-1", []model.CartLine{
		{ID: "l3", MenuItemID: "m3", Quantity: 3},
	}))

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l3", got[0].ID)
}

func TestSnapshotBolt_ClearRemovesKey(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("sess-1", []model.CartLine{{ID: "l1", MenuItemID: "m1", Quantity: 1}}))
	require.NoError(t, store.Clear("sess-1"))

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// 形が不正なレコードはそのレコードだけ捨てる
func TestSnapshotBolt_InvalidRecordsDropped(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("sess-1", []model.CartLine{
		{ID: "l1", MenuItemID: "m1", Quantity: 1},
		{ID: "", MenuItemID: "m2", Quantity: 1},  // IDなし
		{ID: "l3", MenuItemID: "", Quantity: 1},  // メニューなし
		{ID: "l4", MenuItemID: "m4", Quantity: 0}, // 数量不正
	}))

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l1", got[0].ID)
}

// 値全体が壊れていたらキーごと捨てて空扱い
func TestSnapshotBolt_CorruptValueClearedOnLoad(t *testing.T) {
	store := newTestStore(t)

	err := store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(snapshotBucket)).Put([]byte("sess-1"), []byte("{not json"))
	})
	require.NoError(t, err)

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// キー自体が消えている
	err = store.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(snapshotBucket)).Get([]byte("sess-1"))
		assert.Nil(t, v)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotBolt_SaveNilIsEmptyArray(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("sess-1", nil))

	got, err := store.Load("sess-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
