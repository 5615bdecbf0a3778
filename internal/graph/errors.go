package graph

import "github.com/cockroachdb/errors"

// Failure classes. Concrete errors are wrapped with context and marked with
// one of these so callers can classify them with errors.Is.
var (
	// ErrNotFound is returned by key lookups on a published tree.
	ErrNotFound = errors.New("node not found")

	// ErrMissingSource means a declared site map file does not exist.
	ErrMissingSource = errors.New("site map source missing")

	// ErrInvalidDeclaration means a source contains an element or
	// attribute value that cannot be turned into a node.
	ErrInvalidDeclaration = errors.New("invalid site map declaration")

	// ErrUnresolvableParent means a non-root declaration has no parent key.
	ErrUnresolvableParent = errors.New("no parent key defined")

	// ErrProviderResolution means a named dynamic node provider, URL
	// resolver or visibility provider could not be resolved.
	ErrProviderResolution = errors.New("provider resolution failed")

	// ErrNoRoot means the configured sources produced no root node.
	ErrNoRoot = errors.New("site map has no root node")
)
