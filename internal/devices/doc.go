// package devices keeps this installation discoverable to its siblings
// and arbitrates which device is the authoritative player.
//
// Each device owns one row in the shared store: registration upserts it,
// a 30-second heartbeat keeps lastSeen fresh, and three distinct liveness
// windows govern registration decisions (2m), playback authority (5m),
// and display listings (10m). The arbiter's activate sequence is two
// writes without a transaction; the system tolerates the resulting race
// as last-write-wins, bounded by the 5-minute authority window.
package devices
