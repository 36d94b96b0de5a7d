// Package triage embeds the scheduling knowledge search engine in a Go program.
//
// The client ranks published tribal-knowledge entries by cosine similarity to a
// query embedding and falls back to keyword matching whenever embeddings are
// unavailable or nothing clears the similarity threshold. Every search reports
// which mode produced its hits.
//
//	client, _ := triage.New(ctx,
//	    triage.WithSQLite("knowledge.db"),
//	    triage.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, triage.SearchRequest{
//	    Query:   "crohn's disease referral",
//	    Filters: triage.Filters{Specialty: "rheum"},
//	})
//	for _, h := range res.Hits {
//	    fmt.Println(h.Score, h.Entry.Specialty, res.Mode)
//	}
//
// Without WithEmbedder every search runs in keyword mode.
package triage
