// Package roster implements persistence for the child roster.
//
// The FileRepository stores and loads the roster document as JSON on disk
// and exposes a Repository interface that the server service depends on.
package roster
