// Package registry maps caller model keys to provider model ids
// and display names. A Registry is read-only after construction
// and safe for concurrent use.
package registry
