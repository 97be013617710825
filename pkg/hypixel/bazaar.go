package hypixel

import (
	"time"

	"github.com/tidwall/gjson"
)

// SummarySide tells which side of the order book a summary covers
type SummarySide string

const (
	SellSide SummarySide = "sell"
	BuySide  SummarySide = "buy"
)

// Bazaar is a snapshot of the commodity market
type Bazaar struct {
	LastUpdate *time.Time      `json:"last_update,omitempty"`
	Products   []BazaarProduct `json:"products"`
}

// Product returns the product with the given ID
func (b *Bazaar) Product(id string) (*BazaarProduct, bool) {
	for i := range b.Products {
		if b.Products[i].ID == id {
			return &b.Products[i], true
		}
	}
	return nil, false
}

// BazaarProduct is one tradable commodity
type BazaarProduct struct {
	ID          string       `json:"id"`
	SellSummary ItemSummary  `json:"sell_summary"`
	BuySummary  ItemSummary  `json:"buy_summary"`
	QuickStatus *QuickStatus `json:"quick_status,omitempty"`
}

// ItemSummary is the top of one side of a product's order book, at most 30
// price levels as returned upstream
type ItemSummary struct {
	Side   SummarySide   `json:"side"`
	Offers []BazaarOffer `json:"offers"`
}

// BazaarOffer aggregates every order at one price per unit
type BazaarOffer struct {
	Amount       *int64   `json:"amount,omitempty"`
	PricePerUnit *float64 `json:"price_per_unit,omitempty"`
	Orders       *int64   `json:"orders,omitempty"`
}

// QuickStatus is the product's aggregated market figures
type QuickStatus struct {
	SellPrice      *float64 `json:"sell_price,omitempty"`
	SellVolume     *int64   `json:"sell_volume,omitempty"`
	SellMovingWeek *int64   `json:"sell_moving_week,omitempty"`
	SellOrders     *int64   `json:"sell_orders,omitempty"`
	BuyPrice       *float64 `json:"buy_price,omitempty"`
	BuyVolume      *int64   `json:"buy_volume,omitempty"`
	BuyMovingWeek  *int64   `json:"buy_moving_week,omitempty"`
	BuyOrders      *int64   `json:"buy_orders,omitempty"`
}

func mapBazaar(raw gjson.Result) (*Bazaar, error) {
	f := newFields("Bazaar", raw)
	b := &Bazaar{LastUpdate: f.millis("lastUpdated")}
	f.entries("products", func(key string, value gjson.Result) {
		p, err := mapBazaarProduct(key, value)
		if err != nil {
			f.record(err)
			return
		}
		b.Products = append(b.Products, *p)
	})
	if err := f.err(); err != nil {
		return nil, err
	}
	return b, nil
}

func mapBazaarProduct(key string, raw gjson.Result) (*BazaarProduct, error) {
	f := newFields("BazaarProduct", raw)
	p := &BazaarProduct{ID: key}
	if id := f.str("product_id"); id != nil {
		p.ID = *id
	}

	p.SellSummary = mapItemSummary(f, "sell_summary", SellSide)
	p.BuySummary = mapItemSummary(f, "buy_summary", BuySide)

	if qs, ok := f.object("quick_status"); ok {
		qf := newFields("QuickStatus", qs)
		p.QuickStatus = &QuickStatus{
			SellPrice:      qf.float("sellPrice"),
			SellVolume:     qf.int("sellVolume"),
			SellMovingWeek: qf.int("sellMovingWeek"),
			SellOrders:     qf.int("sellOrders"),
			BuyPrice:       qf.float("buyPrice"),
			BuyVolume:      qf.int("buyVolume"),
			BuyMovingWeek:  qf.int("buyMovingWeek"),
			BuyOrders:      qf.int("buyOrders"),
		}
		f.record(qf.err())
	}

	if err := f.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func mapItemSummary(f *fields, name string, side SummarySide) ItemSummary {
	summary := ItemSummary{Side: side}
	for _, r := range f.array(name) {
		of := newFields("BazaarOffer", r)
		summary.Offers = append(summary.Offers, BazaarOffer{
			Amount:       of.int("amount"),
			PricePerUnit: of.float("pricePerUnit"),
			Orders:       of.int("orders"),
		})
		f.record(of.err())
	}
	return summary
}
