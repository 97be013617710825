package hypixel

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// SkyblockProfile is one SkyBlock save slot shared by its members
type SkyblockProfile struct {
	ID       uuid.UUID          `json:"id"`
	Name     *string            `json:"name,omitempty"`
	GameMode *string            `json:"game_mode,omitempty"`
	Members  []SkyblockPlayer   `json:"members"`
	Bank     *SkyblockBank      `json:"bank,omitempty"`
	Upgrades *CommunityUpgrades `json:"upgrades,omitempty"`
}

// Member returns the member with the given player UUID
func (p *SkyblockProfile) Member(id uuid.UUID) (*SkyblockPlayer, bool) {
	for i := range p.Members {
		if p.Members[i].UUID == id {
			return &p.Members[i], true
		}
	}
	return nil, false
}

// CommunityUpgrades holds the profile's pending and completed community upgrades
type CommunityUpgrades struct {
	Pending   *PendingUpgrade    `json:"pending,omitempty"`
	Completed []CompletedUpgrade `json:"completed,omitempty"`
}

// PendingUpgrade is a community upgrade in progress
type PendingUpgrade struct {
	Name      *string    `json:"name,omitempty"`
	Tier      *int64     `json:"tier,omitempty"`
	Start     *time.Time `json:"start,omitempty"`
	Initiator *uuid.UUID `json:"initiator,omitempty"`
}

// CompletedUpgrade is a finished community upgrade, in chronological order
type CompletedUpgrade struct {
	Name      *string    `json:"name,omitempty"`
	Tier      *int64     `json:"tier,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	StartedBy *uuid.UUID `json:"started_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	ClaimedBy *uuid.UUID `json:"claimed_by,omitempty"`
}

func mapSkyblockProfiles(raw []gjson.Result) ([]SkyblockProfile, error) {
	profiles := make([]SkyblockProfile, 0, len(raw))
	for _, r := range raw {
		p, err := mapSkyblockProfile(r)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func mapSkyblockProfile(raw gjson.Result) (*SkyblockProfile, error) {
	f := newFields("SkyblockProfile", raw)
	p := &SkyblockProfile{
		ID:       f.requiredID("profile_id"),
		Name:     f.str("cute_name"),
		GameMode: f.str("game_mode"),
	}

	f.entries("members", func(key string, value gjson.Result) {
		id, err := uuid.Parse(key)
		if err != nil {
			f.record(&MappingError{Entity: "SkyblockProfile", Field: "members", Reason: "invalid member uuid " + key})
			return
		}
		member, err := mapSkyblockPlayer(id, value)
		if err != nil {
			f.record(err)
			return
		}
		p.Members = append(p.Members, *member)
	})

	if banking, ok := f.object("banking"); ok {
		bank, err := mapSkyblockBank(banking)
		f.record(err)
		p.Bank = bank
	}
	if upgrades, ok := f.object("community_upgrades"); ok {
		cu, err := mapCommunityUpgrades(upgrades)
		f.record(err)
		p.Upgrades = cu
	}

	if err := f.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func mapCommunityUpgrades(raw gjson.Result) (*CommunityUpgrades, error) {
	f := newFields("CommunityUpgrades", raw)
	cu := &CommunityUpgrades{}

	if pending, ok := f.object("currently_upgrading"); ok {
		pf := newFields("PendingUpgrade", pending)
		cu.Pending = &PendingUpgrade{
			Name:      pf.str("upgrade"),
			Tier:      pf.int("new_tier"),
			Start:     pf.millis("start_ms"),
			Initiator: pf.id("who_started"),
		}
		f.record(pf.err())
	}

	for _, state := range f.array("upgrade_states") {
		sf := newFields("CompletedUpgrade", state)
		cu.Completed = append(cu.Completed, CompletedUpgrade{
			Name:      sf.str("upgrade"),
			Tier:      sf.int("tier"),
			StartedAt: sf.millis("started_ms"),
			StartedBy: sf.id("started_by"),
			ClaimedAt: sf.millis("claimed_ms"),
			ClaimedBy: sf.id("claimed_by"),
		})
		f.record(sf.err())
	}

	if err := f.err(); err != nil {
		return nil, err
	}
	return cu, nil
}
