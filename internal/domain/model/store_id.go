package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// StoreIDは任意の店舗スコープ。
// ゼロ値は「店舗なし（全店共通）」で、StoreOf(0)とは別物。
type StoreID struct {
	id    int64
	valid bool
}

func NoStore() StoreID {
	return StoreID{}
}

func StoreOf(id int64) StoreID {
	return StoreID{id: id, valid: true}
}

// StoreFromPtr はnilを「店舗なし」として扱う。
func StoreFromPtr(id *int64) StoreID {
	if id == nil {
		return NoStore()
	}
	return StoreOf(*id)
}

func (s StoreID) Get() (int64, bool) {
	return s.id, s.valid
}

func (s StoreID) IsSet() bool {
	return s.valid
}

// Ptr はDTO用。店舗なしはnil。
func (s StoreID) Ptr() *int64 {
	if !s.valid {
		return nil
	}
	id := s.id
	return &id
}

// 店舗なし同士だけが一致する
func (s StoreID) Equal(o StoreID) bool {
	if s.valid != o.valid {
		return false
	}
	return !s.valid || s.id == o.id
}

func (s StoreID) String() string {
	if !s.valid {
		return "none"
	}
	return strconv.FormatInt(s.id, 10)
}

// Scan はNULLを店舗なしとして読む。
func (s *StoreID) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = NoStore()
	case int64:
		*s = StoreOf(v)
	case int32:
		*s = StoreOf(int64(v))
	case []byte:
		i, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("store_id: %w", err)
		}
		*s = StoreOf(i)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("store_id: %w", err)
		}
		*s = StoreOf(i)
	default:
		return fmt.Errorf("store_id: unsupported type %T", src)
	}
	return nil
}

func (s StoreID) Value() (driver.Value, error) {
	if !s.valid {
		return nil, nil
	}
	return s.id, nil
}

func (s StoreID) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.id, 10)), nil
}

func (s *StoreID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = NoStore()
		return nil
	}
	var id int64
	if err := json.Unmarshal(b, &id); err != nil {
		return fmt.Errorf("store_id: %w", err)
	}
	*s = StoreOf(id)
	return nil
}
