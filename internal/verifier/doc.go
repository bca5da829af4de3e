// Package verifier runs the change analysis and intent verification pipelines.
//
// A Verifier pulls changed files from git, splits oversized files at definition
// boundaries, asks a chat model about each file and aggregates the replies into
// a verdict. When a storage backend is configured every run is recorded.
//
// # Basic Usage
//
//	client, _ := chat.NewFromEnv()
//	v := verifier.New(client, store, &verifier.Config{Workers: 4})
//
//	result, err := v.VerifyIntent(ctx, verifier.IntentRequest{
//	    TestRepo: "https://github.com/org/tests",
//	    TestRev:  "4f1c2e9",
//	    Repo:     "/path/to/solution",
//	    FromRev:  "HEAD~1",
//	    ToRev:    "HEAD",
//	    Intent:   "make add and the parser tests pass",
//	})
//
//	fmt.Println(result.IsIntentFulfilled, result.Explanation)
//
// # Verification Pipeline
//
//  1. Extract: the model lists the target functions and files named by the intent
//  2. Read: target code is located in the test repository at the test revision
//  3. Diff: changed files are collected between the two solution revisions
//  4. Judge: each non-deleted text file is sent with the target context (parallel)
//  5. Assess: the model summarizes the per-file verdicts in a few sentences
//
// The intent is fulfilled when at least one file supports it and the share of
// supporting files reaches the threshold (0.5 by default). Deleted, binary and
// empty files never support the intent but still count toward the share.
// Confidence is min(ratio*0.7+0.3, 1).
//
// # Concurrent Processing
//
// Per-file model calls run on an errgroup bounded by a semaphore of
// Config.Workers slots. Results are written by index, so the output order
// always matches the order of the changes. Per-file failures are folded into
// the result; only cancellation and failures of the extraction or assessment
// steps abort a run.
//
// # Model Replies
//
// Replies are decoded by ExtractJSON, which keeps the text from the first '{'
// through the last '}'. Intent replies that are not JSON fall back to a keyword
// match on "true", "yes" or "supports".
package verifier
