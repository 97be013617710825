package hypixel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// AuctionQueryKind selects what an auction lookup is keyed by
type AuctionQueryKind string

const (
	AuctionByID      AuctionQueryKind = "uuid"
	AuctionByPlayer  AuctionQueryKind = "player"
	AuctionByProfile AuctionQueryKind = "profile"
)

// AuctionQuery identifies the auctions to look up
type AuctionQuery struct {
	By    AuctionQueryKind
	Value string
}

func (q AuctionQuery) values() (url.Values, error) {
	switch q.By {
	case AuctionByID, AuctionByPlayer, AuctionByProfile:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAuctionQuery, q.By)
	}
	if q.Value == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidAuctionQuery, q.By)
	}
	return url.Values{string(q.By): {q.Value}}, nil
}

// SkyblockManager fetches SkyBlock data. Resources, auction pages and the
// bazaar do not need an API key.
type SkyblockManager struct {
	client *Client
}

// Collections fetches the current collection definitions
func (m *SkyblockManager) Collections(ctx context.Context) ([]CollectionCategory, error) {
	doc, err := m.client.request(ctx, "resources/skyblock/collections", nil, false)
	if err != nil {
		return nil, err
	}
	return mapCollections(doc)
}

// Skills fetches the current skill definitions
func (m *SkyblockManager) Skills(ctx context.Context) ([]Skill, error) {
	doc, err := m.client.request(ctx, "resources/skyblock/skills", nil, false)
	if err != nil {
		return nil, err
	}
	return mapSkills(doc)
}

// News fetches the SkyBlock news feed
func (m *SkyblockManager) News(ctx context.Context) ([]NewsItem, error) {
	doc, err := m.client.request(ctx, "skyblock/news", nil, true)
	if err != nil {
		return nil, err
	}
	return mapNews(doc)
}

// Auctions fetches one page of active auctions. Pages start at 0.
func (m *SkyblockManager) Auctions(ctx context.Context, page int) (*AuctionPage, error) {
	query := url.Values{"page": {strconv.Itoa(page)}}
	doc, err := m.client.request(ctx, "skyblock/auctions", query, false)
	if err != nil {
		return nil, err
	}
	return mapAuctionPage(doc)
}

// AuctionsOf fetches auctions by auction UUID, auctioneer UUID or profile ID.
// A lookup by auction UUID still returns a slice.
func (m *SkyblockManager) AuctionsOf(ctx context.Context, q AuctionQuery) ([]Auction, error) {
	query, err := q.values()
	if err != nil {
		return nil, err
	}
	doc, err := m.client.request(ctx, "skyblock/auction", query, true)
	if err != nil {
		return nil, err
	}

	f := newFields("Auctions", doc)
	raw := f.array("auctions")
	if err := f.err(); err != nil {
		return nil, err
	}
	return mapAuctions(raw)
}

// Profile fetches one SkyBlock profile by its profile ID, which is not a member UUID
func (m *SkyblockManager) Profile(ctx context.Context, profileID uuid.UUID) (*SkyblockProfile, error) {
	query := url.Values{"profile": {profileID.String()}}
	doc, err := m.client.request(ctx, "skyblock/profile", query, true)
	if err != nil {
		return nil, err
	}

	raw := doc.Get("profile")
	if !present(raw) {
		return nil, ErrProfileNotFound
	}
	return mapSkyblockProfile(raw)
}

// Bazaar fetches the bazaar snapshot
func (m *SkyblockManager) Bazaar(ctx context.Context) (*Bazaar, error) {
	doc, err := m.client.request(ctx, "skyblock/bazaar", nil, false)
	if err != nil {
		return nil, err
	}
	return mapBazaar(doc)
}
