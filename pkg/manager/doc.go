// Package manager is the dtsm session: it resolves search terms, installs
// declaration files with their transitive references, and keeps dtsm.json
// consistent with the files on disk.
//
// # Sessions
//
// A [Manager] is created per invocation with [New]. It binds to one manifest
// file and loads the catalog of the index once; [Manager.Fetch] is the only
// operation that refreshes it. If the index was never fetched the catalog
// stays unset and operations that need it fail with INDEX_UNAVAILABLE.
//
//	m, err := manager.New(ctx, manager.Options{
//	    ConfigPath: "dtsm.json",
//	    Index:      repo,
//	    Logger:     logger,
//	})
//	res, err := m.Install(ctx, manager.InstallOptions{Save: true}, "jquery", "node/node.d.ts")
//
// # Outcomes
//
// Batch operations never fail because one entry failed. [Result] reports an
// outcome for every requested term and every visited identifier; the
// returned error is reserved for session-level conditions (no index, corrupt
// manifest, cancellation). Use [Result.Failed] to decide the exit status.
//
// # Persistence
//
// Install writes files only when DryRun is false and touches the manifest
// only when Save is also set. The manifest is read once per operation and
// replaced atomically at most once, so an interrupted run leaves either the
// old or the new manifest.
package manager
