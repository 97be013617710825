package hypixel

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// SkyblockPlayer is one member's progress on a specific profile
type SkyblockPlayer struct {
	UUID   uuid.UUID  `json:"uuid"`
	Joined *time.Time `json:"joined,omitempty"`
	// HubJoined and LastDeath are stored upstream as offsets from the join time
	HubJoined           *time.Time              `json:"hub_joined,omitempty"`
	LastDeath           *time.Time              `json:"last_death,omitempty"`
	Purse               *float64                `json:"purse,omitempty"`
	DeathCount          *int64                  `json:"death_count,omitempty"`
	FairySoulsCollected *int64                  `json:"fairy_souls_collected,omitempty"`
	Pets                []SkyblockPet           `json:"pets,omitempty"`
	Quests              []SkyblockQuest         `json:"quests,omitempty"`
	VisitedZones        []string                `json:"visited_zones,omitempty"`
	Dungeons            *SkyblockPlayerDungeons `json:"dungeons,omitempty"`
}

// SkyblockPet is a pet owned on a profile
type SkyblockPet struct {
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	Type      *string    `json:"type,omitempty"`
	XP        *float64   `json:"xp,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	Tier      *string    `json:"tier,omitempty"`
	HeldItem  *string    `json:"held_item,omitempty"`
	CandyUsed *int64     `json:"candy_used,omitempty"`
}

// QuestStatus is the progress of a SkyBlock quest
type QuestStatus string

const (
	QuestUnlocked  QuestStatus = "UNLOCKED"
	QuestCompleted QuestStatus = "COMPLETED"
)

// SkyblockQuest is a SkyBlock quest. Quests whose upstream status is neither
// ACTIVE nor COMPLETE are left as the zero value.
type SkyblockQuest struct {
	Name        *string      `json:"name,omitempty"`
	Status      *QuestStatus `json:"status,omitempty"`
	UnlockedAt  *time.Time   `json:"unlocked_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func mapSkyblockPlayer(id uuid.UUID, raw gjson.Result) (*SkyblockPlayer, error) {
	f := newFields("SkyblockPlayer", raw)
	joined := f.millis("first_join")
	p := &SkyblockPlayer{
		UUID:                id,
		Joined:              joined,
		HubJoined:           offsetFrom(joined, f.int("first_join_hub")),
		LastDeath:           offsetFrom(joined, f.int("last_death")),
		Purse:               f.float("coin_purse"),
		DeathCount:          f.int("death_count"),
		FairySoulsCollected: f.int("fairy_souls_collected"),
		VisitedZones:        f.strings("visited_zones"),
	}

	for _, r := range f.array("pets") {
		pf := newFields("SkyblockPet", r)
		p.Pets = append(p.Pets, SkyblockPet{
			UUID:      pf.id("uuid"),
			Type:      pf.str("type"),
			XP:        pf.float("exp"),
			Active:    pf.boolean("active"),
			Tier:      pf.str("tier"),
			HeldItem:  pf.str("heldItem"),
			CandyUsed: pf.int("candyUsed"),
		})
		f.record(pf.err())
	}

	f.entries("quests", func(name string, value gjson.Result) {
		q, err := mapSkyblockQuest(name, value)
		f.record(err)
		p.Quests = append(p.Quests, q)
	})

	if dungeons, ok := f.object("dungeons"); ok {
		d, err := mapSkyblockPlayerDungeons(dungeons)
		f.record(err)
		p.Dungeons = d
	}

	if err := f.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func mapSkyblockQuest(name string, raw gjson.Result) (SkyblockQuest, error) {
	f := newFields("SkyblockQuest", raw)
	status := f.str("status")
	if err := f.err(); err != nil || status == nil {
		return SkyblockQuest{}, err
	}

	var q SkyblockQuest
	switch *status {
	case "ACTIVE":
		s := QuestUnlocked
		q.Status = &s
	case "COMPLETE":
		s := QuestCompleted
		q.Status = &s
		q.CompletedAt = f.millis("completed_at")
	default:
		return SkyblockQuest{}, nil
	}
	q.Name = &name
	q.UnlockedAt = f.millis("activated_at")

	if err := f.err(); err != nil {
		return SkyblockQuest{}, err
	}
	return q, nil
}

// offsetFrom adds a millisecond offset to base; either being unset leaves the result unset.
func offsetFrom(base *time.Time, offsetMillis *int64) *time.Time {
	if base == nil || offsetMillis == nil {
		return nil
	}
	t := base.Add(time.Duration(*offsetMillis) * time.Millisecond)
	return &t
}
