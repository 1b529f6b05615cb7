// package playback owns the player-session side of the engine: the
// per-session resolution cache, the anticipatory prefetcher, and the
// session loop through which the active device observes its own row and
// applies remote commands.
package playback
