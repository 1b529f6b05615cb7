// package resolver turns a catalog id into a playable stream descriptor by
// racing mirror providers under tiered fallback.
//
// Tier 0 is a single authoritative call to the direct extractor (server
// deployments only). Tier 1 races a shuffled slice of mirror pool A, tier 2
// a smaller slice of pool B. Within a race the first response that parses
// as valid wins and every other in-flight request is cancelled; individual
// provider failures never abort a race. Exhausting all tiers yields
// [shared.ErrNoStream], which callers treat as a normal empty result.
package resolver
