package hypixel

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// FloorCount is the number of dungeon floors, entrance (0) through floor 7
const FloorCount = 8

// DungeonType distinguishes normal from master mode catacombs
type DungeonType string

const (
	Catacombs       DungeonType = "catacombs"
	MasterCatacombs DungeonType = "master_catacombs"
)

// SkyblockPlayerDungeons holds a member's dungeon statistics
type SkyblockPlayerDungeons struct {
	Catacombs       *SkyblockCatacombs  `json:"catacombs,omitempty"`
	MasterCatacombs *SkyblockCatacombs  `json:"master_catacombs,omitempty"`
	Classes         []DungeonClassStats `json:"classes,omitempty"`
	SelectedClass   *string             `json:"selected_class,omitempty"`
}

// DungeonClassStats is the experience earned with one class
type DungeonClassStats struct {
	Class string   `json:"class"`
	XP    *float64 `json:"xp,omitempty"`
}

// SkyblockCatacombs holds per-floor statistics for one dungeon type
type SkyblockCatacombs struct {
	Type                 DungeonType                `json:"type"`
	XP                   *float64                   `json:"xp,omitempty"`
	HighestTierCompleted *int64                     `json:"highest_tier_completed,omitempty"`
	Floors               [FloorCount]CatacombsFloor `json:"floors"`
}

// CatacombsFloor holds the statistics of one floor. Every field is independently
// optional: it is unset when its upstream series is absent.
type CatacombsFloor struct {
	Floor                  int            `json:"floor"`
	Runs                   *int64         `json:"runs,omitempty"`
	TierCompletions        *int64         `json:"tier_completions,omitempty"`
	FastestCompletion      *time.Duration `json:"fastest_completion,omitempty"`
	FastestCompletionS     *time.Duration `json:"fastest_completion_s,omitempty"`
	FastestCompletionSPlus *time.Duration `json:"fastest_completion_s_plus,omitempty"`
	MobsKilled             *int64         `json:"mobs_killed,omitempty"`
	MostMobsKilled         *int64         `json:"most_mobs_killed,omitempty"`
	MostDamageMage         *float64       `json:"most_damage_mage,omitempty"`
	MostDamageBerserk      *float64       `json:"most_damage_berserk,omitempty"`
	MostDamageArcher       *float64       `json:"most_damage_archer,omitempty"`
	MostDamageHealer       *float64       `json:"most_damage_healer,omitempty"`
	MostDamageTank         *float64       `json:"most_damage_tank,omitempty"`
	MostHealing            *float64       `json:"most_healing,omitempty"`
	BestRuns               []CatacombRun  `json:"best_runs,omitempty"`
}

// CatacombRun is one of a player's best runs on a floor
type CatacombRun struct {
	Time            *time.Time     `json:"time,omitempty"`
	Class           *string        `json:"class,omitempty"`
	Deaths          *int64         `json:"deaths,omitempty"`
	DamageDealt     *float64       `json:"damage_dealt,omitempty"`
	MobKills        *int64         `json:"mob_kills,omitempty"`
	MitigatedDamage *float64       `json:"mitigated_damage,omitempty"`
	AllyHealing     *float64       `json:"ally_healing,omitempty"`
	Teammates       []uuid.UUID    `json:"teammates,omitempty"`
	Duration        *time.Duration `json:"duration,omitempty"`
	Score           RunScore       `json:"score"`
}

// RunScore is the score breakdown of a run
type RunScore struct {
	Exploration *int64 `json:"exploration,omitempty"`
	Speed       *int64 `json:"speed,omitempty"`
	Skill       *int64 `json:"skill,omitempty"`
	Bonus       *int64 `json:"bonus,omitempty"`
}

func mapSkyblockPlayerDungeons(raw gjson.Result) (*SkyblockPlayerDungeons, error) {
	f := newFields("SkyblockPlayerDungeons", raw)
	d := &SkyblockPlayerDungeons{SelectedClass: f.str("selected_dungeon_class")}

	if types, ok := f.object("dungeon_types"); ok {
		tf := newFields("SkyblockPlayerDungeons", types)
		for _, kind := range []DungeonType{Catacombs, MasterCatacombs} {
			data, ok := tf.object(string(kind))
			if !ok || len(data.Map()) == 0 {
				continue
			}
			c, err := mapSkyblockCatacombs(kind, data)
			if err != nil {
				return nil, err
			}
			if kind == Catacombs {
				d.Catacombs = c
			} else {
				d.MasterCatacombs = c
			}
		}
		f.record(tf.err())
	}

	f.entries("player_classes", func(class string, value gjson.Result) {
		cf := newFields("DungeonClassStats", value)
		d.Classes = append(d.Classes, DungeonClassStats{Class: class, XP: cf.float("experience")})
		f.record(cf.err())
	})

	if err := f.err(); err != nil {
		return nil, err
	}
	return d, nil
}

func mapSkyblockCatacombs(kind DungeonType, raw gjson.Result) (*SkyblockCatacombs, error) {
	f := newFields("SkyblockCatacombs", raw)
	c := &SkyblockCatacombs{
		Type:                 kind,
		XP:                   f.float("experience"),
		HighestTierCompleted: f.int("highest_tier_completed"),
	}
	for i := 0; i < FloorCount; i++ {
		floor, err := mapCatacombsFloor(f, i)
		if err != nil {
			return nil, err
		}
		c.Floors[i] = floor
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return c, nil
}

// mapCatacombsFloor picks element n out of each floor-indexed series on the
// catacombs object.
func mapCatacombsFloor(f *fields, n int) (CatacombsFloor, error) {
	floor := CatacombsFloor{
		Floor:                  n,
		Runs:                   f.intOf("times_played", f.indexed("times_played", n)),
		TierCompletions:        f.intOf("tier_completions", f.indexed("tier_completions", n)),
		FastestCompletion:      f.durationOf("fastest_time", f.indexed("fastest_time", n)),
		FastestCompletionS:     f.durationOf("fastest_time_s", f.indexed("fastest_time_s", n)),
		FastestCompletionSPlus: f.durationOf("fastest_time_s_plus", f.indexed("fastest_time_s_plus", n)),
		MobsKilled:             f.intOf("mobs_killed", f.indexed("mobs_killed", n)),
		MostMobsKilled:         f.intOf("most_mobs_killed", f.indexed("most_mobs_killed", n)),
		MostDamageMage:         f.floatOf("most_damage_mage", f.indexed("most_damage_mage", n)),
		MostDamageBerserk:      f.floatOf("most_damage_berserk", f.indexed("most_damage_berserk", n)),
		MostDamageArcher:       f.floatOf("most_damage_archer", f.indexed("most_damage_archer", n)),
		MostDamageHealer:       f.floatOf("most_damage_healer", f.indexed("most_damage_healer", n)),
		MostDamageTank:         f.floatOf("most_damage_tank", f.indexed("most_damage_tank", n)),
		MostHealing:            f.floatOf("most_healing", f.indexed("most_healing", n)),
	}

	runs := f.indexed("best_runs", n)
	if present(runs) {
		if !runs.IsArray() {
			f.mismatch("best_runs", "array", runs)
			return floor, f.err()
		}
		for _, r := range runs.Array() {
			run, err := mapCatacombRun(r)
			if err != nil {
				return floor, err
			}
			floor.BestRuns = append(floor.BestRuns, run)
		}
	}
	return floor, f.err()
}

func mapCatacombRun(raw gjson.Result) (CatacombRun, error) {
	f := newFields("CatacombRun", raw)
	run := CatacombRun{
		Time:            f.millis("timestamp"),
		Class:           f.str("dungeon_class"),
		Deaths:          f.int("deaths"),
		DamageDealt:     f.float("damage_dealt"),
		MobKills:        f.int("mobs_killed"),
		MitigatedDamage: f.float("damage_mitigated"),
		AllyHealing:     f.float("ally_healing"),
		Teammates:       f.ids("teammates"),
		Duration:        f.duration("elapsed_time"),
		Score: RunScore{
			Exploration: f.int("score_exploration"),
			Speed:       f.int("score_speed"),
			Skill:       f.int("score_skill"),
			Bonus:       f.int("score_bonus"),
		},
	}
	return run, f.err()
}
