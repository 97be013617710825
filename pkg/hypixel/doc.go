// Package hypixel provides a client for the Hypixel public API.
//
// The client issues one GET per call against api.hypixel.net, buffers the
// whole response, and maps the JSON payload into typed values. Fields that the
// API leaves out are nil rather than zero, so callers can tell "unset" from a
// real zero.
//
// # Authentication
//
// Player, friend, status, SkyBlock profile, news and auction lookup endpoints
// send the configured key in the API-Key header. Resource listings, auction
// pages and the bazaar are public.
//
// # Basic Usage
//
//	client := hypixel.NewClient(&hypixel.ClientConfig{
//	    APIKey:  "your-api-key",
//	    Timeout: 10 * time.Second,
//	})
//
//	player, err := client.Players().Get(ctx, id)
//	fmt.Println(*player.Rank.Display)
//
//	page, err := client.Skyblock().Auctions(ctx, 0)
//	for _, a := range page.Auctions {
//	    switch a := a.(type) {
//	    case *hypixel.BinAuction:
//	        // fixed price
//	    case *hypixel.StandardAuction:
//	        // bids
//	    }
//	}
//
// # Error Handling
//
// Every failure is one of four typed errors, or a not-found sentinel:
//
//	_, err := client.Players().Get(ctx, id)
//	var rejected *hypixel.UpstreamRejectedError
//	switch {
//	case errors.Is(err, hypixel.ErrPlayerNotFound):
//	    // valid request, unknown player
//	case errors.As(err, &rejected):
//	    // success was false, rejected.Cause may say why
//	}
//
// *TransportError covers network failures, *MalformedResponseError a body that
// is not JSON, and *MappingError a payload field with an unexpected shape.
// Nothing is retried.
package hypixel
