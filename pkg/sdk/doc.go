// Package tiles provides a Go client for tile data: the configuration of
// independently addressable page fragments, carried on the query string for
// transient tiles and kept in durable storage for persistent ones.
//
// # Tile data
//
//	client, _ := tiles.New(ctx, tiles.WithValkey("localhost:6379", ""),
//	    tiles.WithBaseURL("https://example.com"))
//	defer client.Close()
//
//	_ = client.RegisterType(tiles.TileType{
//	    Name:          "example.news",
//	    Title:         "News",
//	    AddPermission: "cmf.ModifyPortalContent",
//	    Schema: tiles.MustSchema(
//	        tiles.MustField("title", tiles.KindTextLine),
//	        tiles.MustField("count", tiles.KindInt, tiles.Missing(int64(5))),
//	    ),
//	})
//
//	t := tiles.NewTile("example.news", "news-1", "/site/front-page", nil)
//	data, _ := client.Data(ctx, t)
//	rec, _ := data.Get(ctx)
//	url, _ := client.URL(ctx, t)
//
// # Codec only
//
//	q, _ := tiles.Encode(tiles.Record{"count": int64(3)}, schema)
//	form, _ := tiles.ParseQuery(q)
//	rec, _ := tiles.Decode(form, schema)
package tiles
