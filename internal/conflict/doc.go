// Package conflict compares generated meal plans with persisted plans and
// turns a caller's resolution choice into concrete write operations.
//
// Both steps are pure. Nothing here touches the store, so abandoning a save
// before the operations are applied never has side effects.
package conflict
