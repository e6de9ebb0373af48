package repository

import (
	"encoding/json"
	"time"

	"app/internal/domain/model"
	"app/internal/validator"

	bolt "github.com/boltdb/bolt"
)

const snapshotBucket = "cart_snapshots"

// ローカルスナップショットのBolt実装。
// 1ファイルの組み込みKVで、キー=セッション、値=明細のJSON配列。
// 書き込みは同期。壊れた値はエラーにせず空として扱う。
type SnapshotBoltStore struct {
	db *bolt.DB
}

// pathのDBを開く（無ければ作成）。バケットも用意する。
func NewSnapshotBoltStore(path string) (*SnapshotBoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotBoltStore{db: db}, nil
}

func (s *SnapshotBoltStore) Close() error {
	return s.db.Close()
}

// スナップショットを読み込む。
// 配列全体がパースできなければキーごと捨てて空を返す。
// 形が不正なレコードはそのレコードだけ捨てる。
func (s *SnapshotBoltStore) Load(sessionKey string) ([]model.CartLine, error) {
	var raw []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		v := b.Get([]byte(sessionKey))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return []model.CartLine{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		// 全体が壊れている。キーを捨てて空扱い。
		_ = s.Clear(sessionKey)
		return []model.CartLine{}, nil
	}

	lines := make([]model.CartLine, 0, len(records))
	for _, rec := range records {
		var line model.CartLine
		if err := json.Unmarshal(rec, &line); err != nil {
			continue
		}
		if !validator.ValidLineShape(line) {
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// 保存値を常に全上書き
func (s *SnapshotBoltStore) Save(sessionKey string, lines []model.CartLine) error {
	if lines == nil {
		lines = []model.CartLine{}
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		return b.Put([]byte(sessionKey), data)
	})
}

func (s *SnapshotBoltStore) Clear(sessionKey string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		return b.Delete([]byte(sessionKey))
	})
}
