// Package trigger turns debounced filesystem batches into Emby library
// update calls. Changes are persisted as pending rows before any network
// attempt, compared against the index so unchanged files never trigger,
// and committed to the index only after Emby acknowledges the update.
package trigger
