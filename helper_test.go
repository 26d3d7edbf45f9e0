package tradebook

import (
	"encoding/json"
	"slices"
	"strings"
)

// memKV is an in memory KV for tests.
type memKV map[string][]byte

func (m memKV) Get(key string, v any) (bool, error) {
	data, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func (m memKV) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = data
	return nil
}

func (m memKV) Delete(key string) error {
	delete(m, key)
	return nil
}

func (m memKV) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
