package hypixel

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// StaffRankNormal is the staff rank held by every non-staff account
const StaffRankNormal = "NORMAL"

// PlayerRanks resolves a player's staff and purchased ranks
type PlayerRanks struct {
	// Staff is ADMIN, MODERATOR, HELPER or NORMAL
	Staff *string `json:"staff,omitempty"`
	// Package is the purchased rank, such as MVP_PLUS, MVP, VIP_PLUS, VIP or NONE
	Package            *string    `json:"package,omitempty"`
	Display            *string    `json:"display,omitempty"`
	MonthlyPackageRank *string    `json:"monthly_package_rank,omitempty"`
	LatestPurchase     *time.Time `json:"latest_purchase,omitempty"`
}

// Achievement is one tiered achievement counter
type Achievement struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// PetConsumable counts a stored pet consumable
type PetConsumable struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NetworkQuest is a network-wide quest and the times it was completed
type NetworkQuest struct {
	Name        string      `json:"name"`
	Completions []time.Time `json:"completions,omitempty"`
}

// GameStats holds the unmapped per-game statistics block
type GameStats struct {
	Game string          `json:"game"`
	Raw  json.RawMessage `json:"raw"`
}

// Player is a Hypixel network account
type Player struct {
	UUID                uuid.UUID       `json:"uuid"`
	Rank                PlayerRanks     `json:"rank"`
	DisplayName         *string         `json:"display_name,omitempty"`
	FirstLogin          *time.Time      `json:"first_login,omitempty"`
	LastLogin           *time.Time      `json:"last_login,omitempty"`
	LastLogout          *time.Time      `json:"last_logout,omitempty"`
	KnownAliases        []string        `json:"known_aliases,omitempty"`
	OneTimeAchievements []string        `json:"one_time_achievements,omitempty"`
	Achievements        []Achievement   `json:"achievements,omitempty"`
	Channel             *string         `json:"channel,omitempty"`
	Karma               *int64          `json:"karma,omitempty"`
	FriendRequests      []uuid.UUID     `json:"friend_requests,omitempty"`
	PetConsumables      []PetConsumable `json:"pet_consumables,omitempty"`
	Quests              []NetworkQuest  `json:"quests,omitempty"`
	MostRecentGame      *string         `json:"most_recent_game,omitempty"`
	Language            *string         `json:"language,omitempty"`
	Version             *string         `json:"version,omitempty"`
	Stats               []GameStats     `json:"stats,omitempty"`
}

// purchaseOrder lists the rank upgrade timestamps; later entries take precedence.
var purchaseOrder = []string{
	"levelUp_VIP",
	"levelUp_VIP_PLUS",
	"levelUp_MVP",
	"levelUp_MVP_PLUS",
}

func mapPlayerRanks(raw gjson.Result) (PlayerRanks, error) {
	f := newFields("PlayerRanks", raw)
	ranks := PlayerRanks{
		Staff:              f.str("role"),
		Package:            f.str("rank"),
		MonthlyPackageRank: f.str("monthlyPackageRank"),
		LatestPurchase:     f.millis("firstLogin"),
	}
	if ranks.Package == nil {
		ranks.Package = f.str("newPackageRank")
	}
	if ranks.Package == nil {
		ranks.Package = f.str("packageRank")
	}

	for _, name := range purchaseOrder {
		if t := f.millis(name); t != nil {
			ranks.LatestPurchase = t
		}
	}

	ranks.Display = ranks.Package
	if ranks.Staff != nil && *ranks.Staff != StaffRankNormal {
		ranks.Display = ranks.Staff
	}
	return ranks, f.err()
}

func mapPlayer(raw gjson.Result) (*Player, error) {
	f := newFields("Player", raw)
	if err := f.err(); err != nil {
		return nil, err
	}

	rank, err := mapPlayerRanks(raw)
	if err != nil {
		return nil, err
	}

	p := &Player{
		UUID:                f.requiredID("uuid"),
		Rank:                rank,
		DisplayName:         f.str("displayname"),
		FirstLogin:          f.millis("firstLogin"),
		LastLogin:           f.millis("lastLogin"),
		LastLogout:          f.millis("lastLogout"),
		KnownAliases:        f.strings("knownAliases"),
		OneTimeAchievements: f.strings("achievementsOneTime"),
		Channel:             f.str("channel"),
		Karma:               f.int("karma"),
		FriendRequests:      f.ids("friendRequestsUuid"),
		MostRecentGame:      f.str("mostRecentGameType"),
		Language:            f.str("userLanguage"),
		Version:             f.str("mcVersionRp"),
	}

	f.entries("achievements", func(name string, value gjson.Result) {
		if n := f.intOf("achievements", value); n != nil {
			p.Achievements = append(p.Achievements, Achievement{Name: name, Value: *n})
		}
	})
	f.entries("petConsumables", func(name string, value gjson.Result) {
		if n := f.intOf("petConsumables", value); n != nil {
			p.PetConsumables = append(p.PetConsumables, PetConsumable{Name: name, Count: *n})
		}
	})
	f.entries("quests", func(name string, value gjson.Result) {
		q, err := mapNetworkQuest(name, value)
		f.record(err)
		p.Quests = append(p.Quests, q)
	})
	f.entries("stats", func(game string, value gjson.Result) {
		p.Stats = append(p.Stats, GameStats{Game: game, Raw: json.RawMessage(value.Raw)})
	})

	if err := f.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func mapNetworkQuest(name string, raw gjson.Result) (NetworkQuest, error) {
	f := newFields("NetworkQuest", raw)
	q := NetworkQuest{Name: name}
	for _, completion := range f.array("completions") {
		cf := newFields("NetworkQuest", completion)
		if t := cf.millis("time"); t != nil {
			q.Completions = append(q.Completions, *t)
		}
		f.record(cf.err())
	}
	return q, f.err()
}
