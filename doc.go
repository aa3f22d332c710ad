// Package ragctx retrieves, ranks and quotes document passages to ground
// language model answers.
//
// Passages live in Redis (native KNN via FT.SEARCH) or SQLite (client-side
// scoring). Each passage is ranked by
//
//	0.7*cosine + 0.2*theme overlap + 0.1*gist overlap
//
// and anything scoring 0.3 or less is dropped.
//
//	client, _ := ragctx.New(
//	    ragctx.WithRedis("localhost:6379", ""),
//	    ragctx.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	results, _ := client.Search(ctx, "how are reward models trained", ragctx.Limit(3))
//	block := client.Context(ctx, "how are reward models trained")
//	fmt.Println(block.Text)
package ragctx
