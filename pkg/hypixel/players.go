package hypixel

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// PlayerManager fetches player data. Every call requires an API key.
type PlayerManager struct {
	client *Client
}

func playerQuery(id uuid.UUID) url.Values {
	return url.Values{"uuid": {id.String()}}
}

// Get fetches a player's network profile
func (m *PlayerManager) Get(ctx context.Context, id uuid.UUID) (*Player, error) {
	doc, err := m.client.request(ctx, "player", playerQuery(id), true)
	if err != nil {
		return nil, err
	}

	raw := doc.Get("player")
	if !present(raw) {
		return nil, ErrPlayerNotFound
	}
	return mapPlayer(raw)
}

// Friends fetches a player's friend list
func (m *PlayerManager) Friends(ctx context.Context, id uuid.UUID) (*FriendManager, error) {
	doc, err := m.client.request(ctx, "friends", playerQuery(id), true)
	if err != nil {
		return nil, err
	}
	return mapFriendManager(doc)
}

// Status fetches a player's online status
func (m *PlayerManager) Status(ctx context.Context, id uuid.UUID) (*Session, error) {
	doc, err := m.client.request(ctx, "status", playerQuery(id), true)
	if err != nil {
		return nil, err
	}
	return mapSession(doc.Get("session"))
}

// SkyblockProfiles fetches every SkyBlock profile the player is a member of
func (m *PlayerManager) SkyblockProfiles(ctx context.Context, id uuid.UUID) ([]SkyblockProfile, error) {
	doc, err := m.client.request(ctx, "skyblock/profiles", playerQuery(id), true)
	if err != nil {
		return nil, err
	}

	f := newFields("SkyblockProfiles", doc)
	raw := f.array("profiles")
	if err := f.err(); err != nil {
		return nil, err
	}
	return mapSkyblockProfiles(raw)
}
