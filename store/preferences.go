package store

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
)

const DefaultPreferencePrefix = "prefs"

// PreferenceStore 持久化用户的个性化偏好，key 为 prefs:<user_id>。
type PreferenceStore struct {
	store  core.Store
	Prefix string
}

func NewPreferenceStore(s core.Store) *PreferenceStore {
	return &PreferenceStore{store: s, Prefix: DefaultPreferencePrefix}
}

// Load 读取偏好；未设置或无法解码时返回零值。
func (p *PreferenceStore) Load(ctx context.Context, userID string) (core.UserPreferences, error) {
	var prefs core.UserPreferences
	if err := getJSON(ctx, p.store, p.key(userID), &prefs); err != nil {
		if core.IsStoreNotFound(err) || isDecodeError(err) {
			return core.UserPreferences{}, nil
		}
		return core.UserPreferences{}, err
	}
	return prefs, nil
}

func (p *PreferenceStore) Save(ctx context.Context, userID string, prefs core.UserPreferences) error {
	return setJSON(ctx, p.store, p.key(userID), prefs)
}

func (p *PreferenceStore) key(userID string) string {
	return p.Prefix + ":" + userID
}
