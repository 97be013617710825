package hypixel

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Auction is a listing on the auction house: either *BinAuction or *StandardAuction
type Auction interface {
	Listing() *AuctionListing
	isAuction()
}

// AuctionItem is the item being sold
type AuctionItem struct {
	Name     *string `json:"name,omitempty"`
	Lore     *string `json:"lore,omitempty"`
	Tier     *string `json:"tier,omitempty"`
	Category *string `json:"category,omitempty"`
	Extra    *string `json:"extra,omitempty"`
}

// AuctionListing holds the fields shared by both kinds of auction
type AuctionListing struct {
	// ID is the auction's own UUID, unrelated to any player UUID
	ID         uuid.UUID   `json:"id"`
	Auctioneer *uuid.UUID  `json:"auctioneer,omitempty"`
	ProfileID  *uuid.UUID  `json:"profile_id,omitempty"`
	Coop       []uuid.UUID `json:"coop,omitempty"`
	Bin        bool        `json:"bin"`
	Start      *time.Time  `json:"start,omitempty"`
	End        *time.Time  `json:"end,omitempty"`
	Item       AuctionItem `json:"item"`
}

// BinAuction is a fixed price "buy it now" listing
type BinAuction struct {
	AuctionListing
	Price *int64 `json:"price,omitempty"`
	Sold  *bool  `json:"sold,omitempty"`
}

// StandardAuction is a bid based listing
type StandardAuction struct {
	AuctionListing
	StartingBid *int64       `json:"starting_bid,omitempty"`
	HighestBid  *int64       `json:"highest_bid,omitempty"`
	Bids        []AuctionBid `json:"bids"`
}

func (a *BinAuction) Listing() *AuctionListing { return &a.AuctionListing }
func (a *StandardAuction) Listing() *AuctionListing { return &a.AuctionListing }

func (*BinAuction) isAuction() {}
func (*StandardAuction) isAuction() {}

// AuctionBid is one bid on a standard auction
type AuctionBid struct {
	AuctionID *uuid.UUID `json:"auction_id,omitempty"`
	Bidder    *uuid.UUID `json:"bidder,omitempty"`
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
	Amount    *int64     `json:"amount,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
}

// AuctionPage is one page of the active auction listing
type AuctionPage struct {
	Page         *int64     `json:"page,omitempty"`
	PageCount    *int64     `json:"page_count,omitempty"`
	AuctionCount *int64     `json:"auction_count,omitempty"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
	Auctions     []Auction  `json:"auctions"`
}

func mapAuctionPage(raw gjson.Result) (*AuctionPage, error) {
	f := newFields("AuctionPage", raw)
	page := &AuctionPage{
		Page:         f.int("page"),
		PageCount:    f.int("totalPages"),
		AuctionCount: f.int("totalAuctions"),
		LastUpdate:   f.millis("lastUpdated"),
	}
	auctions, err := mapAuctions(f.array("auctions"))
	if err != nil {
		return nil, err
	}
	page.Auctions = auctions
	if err := f.err(); err != nil {
		return nil, err
	}
	return page, nil
}

func mapAuctions(raw []gjson.Result) ([]Auction, error) {
	auctions := make([]Auction, 0, len(raw))
	for _, r := range raw {
		a, err := mapAuction(r)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, nil
}

// mapAuction selects the variant from the raw bin flag before mapping.
func mapAuction(raw gjson.Result) (Auction, error) {
	f := newFields("Auction", raw)
	bin := f.boolean("bin")
	if err := f.err(); err != nil {
		return nil, err
	}
	if bin != nil && *bin {
		return mapBinAuction(raw)
	}
	return mapStandardAuction(raw)
}

func mapBinAuction(raw gjson.Result) (*BinAuction, error) {
	f := newFields("BinAuction", raw)
	a := &BinAuction{
		AuctionListing: mapAuctionListing(f),
		Price:          f.int("starting_bid"),
		Sold:           f.boolean("claimed"),
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return a, nil
}

func mapStandardAuction(raw gjson.Result) (*StandardAuction, error) {
	f := newFields("StandardAuction", raw)
	a := &StandardAuction{
		AuctionListing: mapAuctionListing(f),
		StartingBid:    f.int("starting_bid"),
		HighestBid:     f.int("highest_bid_amount"),
	}
	for _, r := range f.array("bids") {
		bf := newFields("AuctionBid", r)
		a.Bids = append(a.Bids, AuctionBid{
			AuctionID: bf.id("auction_id"),
			Bidder:    bf.id("bidder"),
			ProfileID: bf.id("profile_id"),
			Amount:    bf.int("amount"),
			Time:      bf.millis("timestamp"),
		})
		f.record(bf.err())
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return a, nil
}

func mapAuctionListing(f *fields) AuctionListing {
	l := AuctionListing{
		ID:         f.requiredID("uuid"),
		Auctioneer: f.id("auctioneer"),
		ProfileID:  f.id("profile_id"),
		Coop:       f.ids("coop"),
		Start:      f.millis("start"),
		End:        f.millis("end"),
		Item: AuctionItem{
			Name:     f.str("item_name"),
			Lore:     f.str("item_lore"),
			Tier:     f.str("tier"),
			Category: f.str("category"),
			Extra:    f.str("extra"),
		},
	}
	if bin := f.boolean("bin"); bin != nil {
		l.Bin = *bin
	}
	return l
}
