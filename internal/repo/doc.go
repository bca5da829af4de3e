// Package repo reads commits, trees and diffs from git repositories with
// go-git. No git binary is required.
//
// # Basic Usage
//
//	r, err := repo.Open(ctx, "https://github.com/acme/widget.git")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	changes, err := r.ChangedFiles(ctx, "v1.0.0", "main")
//	for _, c := range changes {
//	    fmt.Printf("%s %s\n", c.Status, c.Path)
//	}
//
// Local paths are opened in place. URLs (anything with "://" or a git@
// prefix) are cloned into a temporary directory that Close removes.
//
// # Changed Files
//
// Trees are diffed without rename detection, so a rename is reported as a
// deletion and an addition. Added and modified files carry the newer content
// and a unified diff in Patch. Binary blobs are replaced with "[Binary file]"
// and invalid UTF-8 with "[Non-UTF8 content]".
//
// # Test Targets
//
// ReadTargets resolves target files by exact path, then by path suffix
// ("util.rs" matches "src/util.rs"), and target functions by running the
// parser locator over every Rust, JS/TS and Python file in path order. The
// first file that defines the function wins. Misses are recorded as
// "file not found" or "function not found in repository".
package repo
