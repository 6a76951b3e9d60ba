// Package io provides the file primitives dtsm persists state with.
//
// # Atomic replace
//
// [WriteFileAtomic] writes a temp file in the destination's directory, syncs
// it, and renames it over the destination. A reader, or a process that is
// interrupted mid-write, sees either the old file or the new one, never a
// truncated mix. Installed declaration files and the manifest are both
// written this way.
//
// # JSON
//
// [WriteJSON] encodes a value with two-space indentation, a trailing
// newline, and without HTML escaping, so that "<" in a reference path stays
// readable. Map keys are sorted by encoding/json, which together with the
// fixed struct field order makes the output byte-stable: decoding with
// [ReadJSON] and encoding again yields identical bytes.
//
//	var m manifest.Manifest
//	if err := io.ImportJSON("dtsm.json", &m); err != nil {
//	    return err
//	}
//	return io.ExportJSON("dtsm.json", &m)
package io
