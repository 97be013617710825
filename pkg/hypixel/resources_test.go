package hypixel

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"
)

func TestSkyblockCollections(t *testing.T) {
	body := `{
	  "success": true,
	  "lastUpdated": 1600000000000,
	  "version": "0.9.14",
	  "collections": {
	    "FARMING": {
	      "name": "Farming",
	      "items": {
	        "WHEAT": {
	          "name": "Wheat",
	          "maxTiers": 2,
	          "tiers": [
	            {"tier": 1, "amountRequired": 50, "unlocks": ["Wheat Minion Recipes"]},
	            {"tier": 2, "amountRequired": 100, "unlocks": ["Farming Talisman", "+20 SkyBlock XP"]}
	          ]
	        },
	        "CARROT_ITEM": {"name": "Carrot", "maxTiers": 0, "tiers": []}
	      }
	    },
	    "MINING": {"name": "Mining", "items": {}}
	  }
	}`
	server := mockServer(t, "/resources/skyblock/collections", false, http.StatusOK, body)
	defer server.Close()

	categories, err := newTestClient(server.URL).Skyblock().Collections(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(categories) != 2 || categories[0].ID != "FARMING" || categories[1].ID != "MINING" {
		t.Fatalf("Unexpected categories %+v", categories)
	}
	farming := categories[0]
	if *farming.Name != "Farming" || len(farming.Items) != 2 {
		t.Fatalf("Unexpected farming category %+v", farming)
	}
	wheat := farming.Items[0]
	if wheat.ID != "WHEAT" || *wheat.MaxTiers != 2 || len(wheat.Tiers) != 2 {
		t.Fatalf("Unexpected wheat %+v", wheat)
	}
	if *wheat.Tiers[1].AmountRequired != 100 || len(wheat.Tiers[1].Unlocks) != 2 || wheat.Tiers[1].Unlocks[0] != "Farming Talisman" {
		t.Errorf("Unexpected tier %+v", wheat.Tiers[1])
	}
	if len(categories[1].Items) != 0 {
		t.Errorf("Expected no mining items, got %d", len(categories[1].Items))
	}
}

func TestSkyblockSkills(t *testing.T) {
	body := `{
	  "success": true,
	  "skills": {
	    "FARMING": {
	      "name": "Farming",
	      "description": "Harvest crops and shear sheep to earn Farming XP!",
	      "maxLevel": 60,
	      "levels": [
	        {"level": 1, "totalExpRequired": 50.0, "unlocks": ["Farmhand I"]},
	        {"level": 2, "totalExpRequired": 175.0, "unlocks": []}
	      ]
	    }
	  }
	}`
	server := mockServer(t, "/resources/skyblock/skills", false, http.StatusOK, body)
	defer server.Close()

	skills, err := newTestClient(server.URL).Skyblock().Skills(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("Expected 1 skill, got %d", len(skills))
	}
	farming := skills[0]
	if farming.ID != "FARMING" || *farming.MaxLevel != 60 || len(farming.Levels) != 2 {
		t.Fatalf("Unexpected skill %+v", farming)
	}
	if *farming.Levels[1].TotalExpRequired != 175 || len(farming.Levels[1].Unlocks) != 0 {
		t.Errorf("Unexpected level %+v", farming.Levels[1])
	}
}

func TestSkyblockNews(t *testing.T) {
	body := `{
	  "success": true,
	  "items": [
	    {"item": {"material": "DIAMOND"}, "link": "https://hypixel.net/threads/1", "text": "14th June 2020", "title": "SkyBlock v0.9.14"},
	    {"link": "https://hypixel.net/threads/2", "title": "Dungeons"}
	  ]
	}`
	server := mockServer(t, "/skyblock/news", true, http.StatusOK, body)
	defer server.Close()

	news, err := newTestClient(server.URL).Skyblock().News(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(news) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(news))
	}
	if *news[0].Material != "DIAMOND" || *news[0].Title != "SkyBlock v0.9.14" {
		t.Errorf("Unexpected first item %+v", news[0])
	}
	if news[1].Material != nil || news[1].Text != nil {
		t.Errorf("Expected absent fields unset, got %+v", news[1])
	}
}

func TestMapResources_MappingErrors(t *testing.T) {
	t.Run("TierNotNumber", func(t *testing.T) {
		_, err := mapCollections(gjson.Parse(`{"collections":{"A":{"items":{"B":{"tiers":[{"tier":"one"}]}}}}}`))
		var mappingErr *MappingError
		if !errors.As(err, &mappingErr) || mappingErr.Entity != "CollectionTier" || mappingErr.Field != "tier" {
			t.Fatalf("Expected MappingError on CollectionTier.tier, got %v", err)
		}
	})

	t.Run("LevelsNotArray", func(t *testing.T) {
		_, err := mapSkills(gjson.Parse(`{"skills":{"A":{"levels":5}}}`))
		var mappingErr *MappingError
		if !errors.As(err, &mappingErr) || mappingErr.Entity != "Skill" || mappingErr.Field != "levels" {
			t.Fatalf("Expected MappingError on Skill.levels, got %v", err)
		}
	})

	t.Run("NewsItemNotObject", func(t *testing.T) {
		_, err := mapNews(gjson.Parse(`{"items":[{"item":"DIAMOND"}]}`))
		var mappingErr *MappingError
		if !errors.As(err, &mappingErr) || mappingErr.Entity != "NewsItem" || mappingErr.Field != "item" {
			t.Fatalf("Expected MappingError on NewsItem.item, got %v", err)
		}
	})
}
