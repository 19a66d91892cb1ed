// Package chunkdex embeds search index provisioning for chunk collections
// backed by MongoDB Atlas Search, Redis 8 or Valkey.
//
// A Client submits the vector and full-text index definitions of a
// collection and waits until the database reports them built:
//
//	client, _ := chunkdex.New(ctx, chunkdex.WithMongo("mongodb://localhost:27017", "rag_db"))
//	defer client.Close(ctx)
//
//	created, _ := client.Provision(ctx, "chunks")
//	ready, _ := client.AwaitReady(ctx, "chunks")
//
// EnsureIndexes runs both steps. Indexes that already exist are reported
// with AlreadyExisted set and are not an error.
//
// Model endpoints are optional:
//
//	client, _ := chunkdex.New(ctx,
//	    chunkdex.WithRedis("localhost:6379", ""),
//	    chunkdex.WithModels(chunkdex.ModelSettings{
//	        Model:   "qwen3",
//	        BaseURL: "http://localhost:8000/v1",
//	        APIKey:  "token",
//	    }),
//	)
//	info, _ := client.Models()
package chunkdex
