// Package chat sends prompts to a large language model and returns the reply.
//
// # Basic Usage
//
//	client, err := chat.New(chat.Config{Provider: "openai", APIKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	reply, err := client.Complete(ctx, []chat.Message{
//	    chat.System("You are a code reviewer."),
//	    chat.User(diff),
//	})
//
// # Providers
//
// Supported providers:
//   - openai: OpenAI chat completions via go-openai (default model gpt-3.5-turbo).
//     BaseURL may point at any OpenAI-compatible endpoint.
//   - mock: scripted replies for offline runs and tests
//
// NewFromEnv picks openai when OPENAI_API_KEY is set, or the provider named by
// INTENTCHECK_CHAT_PROVIDER.
//
// # Retry and Caching
//
// Transient failures (network errors, 429 and 5xx) are retried with
// exponential backoff. Other 4xx responses fail immediately.
//
// Replies are cached in an LRU keyed by a SHA-256 of the model and the full
// conversation, so re-running an analysis over the same diff does not call
// the API again.
//
// An empty completion is reported as NoResponse rather than an error.
package chat
