// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories. After that, these kinds are available to storage.New:
//
//   - "memory"   (internal/storage/memory)
//   - "sqlite"   (internal/storage/sqlite)
//   - "postgres" (internal/storage/postgres)
//
// Typical usage, in cmd/site:
//
//	import _ "github.com/tiai1/tiai-solutions/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
package all

import (
	_ "github.com/tiai1/tiai-solutions/internal/storage/memory"
	_ "github.com/tiai1/tiai-solutions/internal/storage/postgres"
	_ "github.com/tiai1/tiai-solutions/internal/storage/sqlite"
)
