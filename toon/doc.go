// Package toon implements TOON, a token-efficient, indentation-based text
// notation with the same data model as JSON.
//
// TOON is designed to be:
//   - Cheap in tokens (no braces, few quotes, shared column headers)
//   - Readable by people and language models alike
//   - Lossless against JSON, including integer vs fractional numbers
//   - Streamable in both directions
//
// # Data Model
//
// Scalars: null, bool, number (integral or fractional), string
// Containers: object (ordered keys), array
//
// # Syntax
//
// Object fields and nesting:
//
//	user:
//	  id: 123
//	  name: Ada
//
// Arrays declare their length. Scalars go inline:
//
//	tags[3]: admin,ops,dev
//
// Arrays of objects sharing the same keys become tables:
//
//	users[2]{id,name}:
//	  1,Alice
//	  2,Bob
//
// Everything else is a list of "- " items:
//
//	items[2]:
//	  - id: 1
//	    tags[1]: a
//	  - plain
//
// A pipe or tab delimiter is declared inside the brackets, as in
// "tags[3|]: a|b|c", so the decoder always knows how rows split.
//
// # Key Folding
//
// With KeyFoldingSafe, chains of single-key objects collapse into dotted
// keys ("a.b.c: 1"). Literal keys containing dots are always quoted, so
// folded output decodes back to the original nesting.
//
// # Streaming
//
// StreamEncoder writes large documents with bounded memory through an
// explicit begin/write/end protocol. StreamDecoder yields the elements of
// a root array one at a time.
package toon
