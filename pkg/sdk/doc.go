// Package patentsearch is a Go client for the patentsearch HTTP API.
//
//	client, _ := patentsearch.New("http://localhost:8080",
//	    patentsearch.WithAPIKey(os.Getenv("PATENTSEARCH_API_KEY")),
//	)
//	res, _ := client.Search(ctx, patentsearch.SearchRequest{
//	    Query:   "solid state battery electrolyte",
//	    Mode:    patentsearch.ModeHybrid,
//	    Limit:   20,
//	    Filters: patentsearch.Filters{CountryCodes: []string{"US", "EP"}},
//	})
//	for _, p := range res.Results {
//	    fmt.Println(p.ID, p.Title, p.SimilarityScore)
//	}
//
// Errors returned by the API are *APIError values. Use errors.Is with the
// sentinel errors of this package to branch on the failure kind:
//
//	if errors.Is(err, patentsearch.ErrNotFound) { ... }
package patentsearch
