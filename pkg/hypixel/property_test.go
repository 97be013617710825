package hypixel

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/tidwall/gjson"
)

func jsonInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// For any combination of purchase timestamps, the latest purchase is the last
// one present in purchase order, falling back to the first login.
func TestProperty_LatestPurchaseOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("latest purchase follows purchase order", prop.ForAll(
		func(stamps []int64, set []bool, firstLogin int64) bool {
			fieldsJSON := []string{fmt.Sprintf(`"firstLogin":%d`, firstLogin)}
			want := firstLogin
			for i, name := range purchaseOrder {
				if set[i] {
					fieldsJSON = append(fieldsJSON, fmt.Sprintf(`%q:%d`, name, stamps[i]))
					want = stamps[i]
				}
			}

			ranks, err := mapPlayerRanks(gjson.Parse("{" + strings.Join(fieldsJSON, ",") + "}"))
			if err != nil || ranks.LatestPurchase == nil {
				return false
			}
			return ranks.LatestPurchase.Equal(ms(want))
		},
		gen.SliceOfN(4, gen.Int64Range(0, 2000000000000)),
		gen.SliceOfN(4, gen.Bool()),
		gen.Int64Range(0, 2000000000000),
	))

	properties.TestingRun(t)
}

// For any floor series, floor n reads element n, whichever container shape the
// series arrives in, and series that are absent stay unset.
func TestProperty_FloorIndexing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	check := func(c *SkyblockCatacombs, played []int64) bool {
		for i := 0; i < FloorCount; i++ {
			floor := c.Floors[i]
			if floor.Floor != i || floor.TierCompletions != nil || floor.MostHealing != nil {
				return false
			}
			if i < len(played) {
				if floor.Runs == nil || *floor.Runs != played[i] {
					return false
				}
			} else if floor.Runs != nil {
				return false
			}
		}
		return true
	}

	properties.Property("array series", prop.ForAll(
		func(played []int64) bool {
			c, err := mapSkyblockCatacombs(Catacombs, gjson.Parse(`{"times_played":`+jsonInts(played)+`}`))
			return err == nil && check(c, played)
		},
		gen.SliceOfN(FloorCount, gen.Int64Range(0, 100000)),
	))

	properties.Property("object series", prop.ForAll(
		func(series []int64, n int) bool {
			played := series[:n]
			entries := make([]string, len(played))
			for i, v := range played {
				entries[i] = fmt.Sprintf(`"%d":%d`, i, v)
			}
			c, err := mapSkyblockCatacombs(MasterCatacombs, gjson.Parse(`{"times_played":{`+strings.Join(entries, ",")+`}}`))
			return err == nil && check(c, played)
		},
		gen.SliceOfN(FloorCount, gen.Int64Range(0, 100000)),
		gen.IntRange(0, FloorCount),
	))

	properties.TestingRun(t)
}

// For any bazaar payload, mapping is deterministic and keeps product order.
func TestProperty_BazaarDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same payload maps to equal values", prop.ForAll(
		func(ids []string, amounts []int64) bool {
			seen := map[string]bool{}
			var products []string
			var order []string
			for i, id := range ids {
				if seen[id] {
					continue
				}
				seen[id] = true
				order = append(order, id)
				amount := amounts[i%len(amounts)]
				products = append(products, fmt.Sprintf(
					`%q:{"sell_summary":[{"amount":%d,"pricePerUnit":1.5,"orders":1}],"buy_summary":[],"quick_status":{"sellVolume":%d}}`,
					id, amount, amount))
			}
			raw := gjson.Parse(`{"lastUpdated":1600000000000,"products":{` + strings.Join(products, ",") + `}}`)

			first, err := mapBazaar(raw)
			if err != nil {
				return false
			}
			second, err := mapBazaar(raw)
			if err != nil || !reflect.DeepEqual(first, second) {
				return false
			}
			if len(first.Products) != len(order) {
				return false
			}
			for i, id := range order {
				if first.Products[i].ID != id {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOfN(4, gen.Int64Range(0, 1000000)),
	))

	properties.TestingRun(t)
}

// For any success value other than literal true, the response is rejected.
func TestProperty_SuccessFlag(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("non-true success is rejected", prop.ForAll(
		func(flag string) bool {
			_, err := decodeEnvelope("player", 200, []byte(`{"success":`+flag+`}`))
			_, rejected := err.(*UpstreamRejectedError)
			return rejected
		},
		gen.OneConstOf(`false`, `null`, `"true"`, `1`, `0`, `{}`, `[]`, `"yes"`),
	))

	properties.TestingRun(t)
}
