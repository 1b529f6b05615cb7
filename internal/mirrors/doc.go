// package mirrors holds the static pools of mirror-provider base URLs and
// generates per-request header profiles that make requests look native to
// each mirror. Pool order is shuffled fresh on every read so no instance
// accumulates persistent bias.
package mirrors
