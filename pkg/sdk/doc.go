// Package pesto embeds the document pipeline in Go programs: download a
// database dump, keep the documents matching a set of filter expressions and
// render each one through a template to a directory or a Redis keyspace.
//
//	client, _ := pesto.New(ctx,
//	    pesto.WithOutputDir("site/_posts"),
//	    pesto.WithFrontMatter("title", "date", "layout"),
//	    pesto.WithAliases("date=created_at"),
//	    pesto.WithDefaults("layout=post.html"),
//	)
//	defer client.Close()
//
//	docs, _ := client.Download(ctx, "notes")
//	docs, _ = client.Filter(docs, []string{"status=published"}, nil)
//	summary, err := client.Build(ctx, docs)
//
// Without an output option the client renders but never writes; use
// Render or Preview to get the generated files back.
package pesto
