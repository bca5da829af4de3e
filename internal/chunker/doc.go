// Package chunker splits oversized source files into definition-sized pieces
// so they can be sent to a size-limited language model one at a time.
//
// # Basic Usage
//
//	c := chunker.New()
//	for _, chunk := range c.Split(content) {
//	    fmt.Printf("chunk %d: bytes %d-%d, ~%d tokens\n",
//	        chunk.Index, chunk.Start, chunk.End, chunk.EstimateTokens())
//	}
//
// # Boundaries
//
// A new chunk starts at every line that begins with a definition introducer:
//   - fn NAME, optionally preceded by pub and/or async
//   - function NAME
//   - const NAME = ( and let NAME = (
//   - export function NAME and export async function NAME
//
// Text before the first introducer is kept as a leading chunk when it has any
// non-whitespace content; otherwise it is folded into the first chunk.
// Content with no introducer is returned as a single chunk.
//
// # Lossless Partition
//
// Chunks never overlap and leave no gaps:
//
//	var b strings.Builder
//	for _, text := range c.SplitText(content) {
//	    b.WriteString(text)
//	}
//	// b.String() == content
//
// # Model Limits
//
// ChunkForModel only splits when content exceeds the limit (12000 bytes by
// default, see WithLimit). Smaller files are analyzed whole.
//
// The boundary pattern is maintained separately from the parser package's
// lookup tables. The two can disagree about what starts a definition; for
// example a bare method call such as render( is a lookup candidate but never a
// chunk boundary.
package chunker
