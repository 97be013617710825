package hypixel

import (
	"github.com/tidwall/gjson"
)

// CollectionCategory groups collections, such as FARMING or MINING
type CollectionCategory struct {
	ID    string           `json:"id"`
	Name  *string          `json:"name,omitempty"`
	Items []CollectionItem `json:"items"`
}

// CollectionItem is one collection and its tiers
type CollectionItem struct {
	ID       string           `json:"id"`
	Name     *string          `json:"name,omitempty"`
	MaxTiers *int64           `json:"max_tiers,omitempty"`
	Tiers    []CollectionTier `json:"tiers,omitempty"`
}

// CollectionTier is the amount needed to reach a tier and what it unlocks
type CollectionTier struct {
	Tier           *int64   `json:"tier,omitempty"`
	AmountRequired *int64   `json:"amount_required,omitempty"`
	Unlocks        []string `json:"unlocks,omitempty"`
}

// Skill is a SkyBlock skill and its level table
type Skill struct {
	ID          string       `json:"id"`
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	MaxLevel    *int64       `json:"max_level,omitempty"`
	Levels      []SkillLevel `json:"levels,omitempty"`
}

// SkillLevel is the cumulative experience needed for a level
type SkillLevel struct {
	Level            *int64   `json:"level,omitempty"`
	TotalExpRequired *float64 `json:"total_exp_required,omitempty"`
	Unlocks          []string `json:"unlocks,omitempty"`
}

// NewsItem is a SkyBlock news entry
type NewsItem struct {
	Title    *string `json:"title,omitempty"`
	Text     *string `json:"text,omitempty"`
	Link     *string `json:"link,omitempty"`
	Material *string `json:"material,omitempty"`
}

func mapCollections(raw gjson.Result) ([]CollectionCategory, error) {
	f := newFields("Collections", raw)
	var categories []CollectionCategory
	f.entries("collections", func(id string, value gjson.Result) {
		cf := newFields("CollectionCategory", value)
		category := CollectionCategory{ID: id, Name: cf.str("name")}
		cf.entries("items", func(itemID string, item gjson.Result) {
			itf := newFields("CollectionItem", item)
			ci := CollectionItem{
				ID:       itemID,
				Name:     itf.str("name"),
				MaxTiers: itf.int("maxTiers"),
			}
			for _, tier := range itf.array("tiers") {
				tf := newFields("CollectionTier", tier)
				ci.Tiers = append(ci.Tiers, CollectionTier{
					Tier:           tf.int("tier"),
					AmountRequired: tf.int("amountRequired"),
					Unlocks:        tf.strings("unlocks"),
				})
				itf.record(tf.err())
			}
			cf.record(itf.err())
			category.Items = append(category.Items, ci)
		})
		f.record(cf.err())
		categories = append(categories, category)
	})
	if err := f.err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func mapSkills(raw gjson.Result) ([]Skill, error) {
	f := newFields("Skills", raw)
	var skills []Skill
	f.entries("skills", func(id string, value gjson.Result) {
		sf := newFields("Skill", value)
		skill := Skill{
			ID:          id,
			Name:        sf.str("name"),
			Description: sf.str("description"),
			MaxLevel:    sf.int("maxLevel"),
		}
		for _, level := range sf.array("levels") {
			lf := newFields("SkillLevel", level)
			skill.Levels = append(skill.Levels, SkillLevel{
				Level:            lf.int("level"),
				TotalExpRequired: lf.float("totalExpRequired"),
				Unlocks:          lf.strings("unlocks"),
			})
			sf.record(lf.err())
		}
		f.record(sf.err())
		skills = append(skills, skill)
	})
	if err := f.err(); err != nil {
		return nil, err
	}
	return skills, nil
}

func mapNews(raw gjson.Result) ([]NewsItem, error) {
	f := newFields("News", raw)
	var items []NewsItem
	for _, r := range f.array("items") {
		nf := newFields("NewsItem", r)
		item := NewsItem{
			Title: nf.str("title"),
			Text:  nf.str("text"),
			Link:  nf.str("link"),
		}
		if material, ok := nf.object("item"); ok {
			mf := newFields("NewsItem", material)
			item.Material = mf.str("material")
			nf.record(mf.err())
		}
		f.record(nf.err())
		items = append(items, item)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return items, nil
}
