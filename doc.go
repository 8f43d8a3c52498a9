// Package jot is the Composition Root for the jot note vault.
//
// It connects the core logic (notes, tags, the application controller) with
// the storage adapters using the Hexagonal Architecture pattern.
//
// A vault is a keyed collection of notes: an ordered index under the key
// "notes" and one record per note under "notes:<id>". Edits are held in
// memory and written after a quiet period; deletes are written immediately.
//
// Features:
//
//   - **Hashtag tags**: tags are derived from note content ("#idea"), never edited directly.
//   - **Debounced persistence**: bursts of edits to a note collapse into one write.
//   - **Pluggable storage**: a directory of JSON/YAML files (default), a SQLite file, or memory.
//   - **Reactive**: the filesystem adapter reports writes made by other processes.
//
// Usage:
//
//	svc, err := jot.New("./notes", jot.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer svc.Close() // flushes pending saves
//
//	n := svc.Create()
//	svc.Edit(n.ID, jot.ParseText("# Groceries\nmilk #shopping"), "")
//	shopping := svc.Filter([]string{"shopping"})
package jot
