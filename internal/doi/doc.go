// Package doi models the DataCite DOI lifecycle and the minimal update
// payload sent to the metadata API.
//
// States and events are closed string enums. ResolveEvent maps a
// (current, desired) state pair to the single event the authority must be
// told to apply; it is a table lookup, so pairs without a direct event (such
// as findable -> draft) fail rather than being decomposed. Record keeps the
// current and desired snapshots of one DOI and UpdatePayload diffs them into
// a request body carrying only the attributes that changed.
package doi
