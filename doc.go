// Package depot implements a per-CPU magazine cache for object handles,
// the layer of a slab-style allocator that sits between a fast
// allocation path and a slower backing cache that constructs objects.
//
// The design follows the magazine and depot scheme of Bonwick and Adams,
// [Magazines and Vmem]: each CPU serves obtains and stores from its own
// small stacks of handles, and only trades whole stacks with a shared
// depot when its local ones run dry (obtain) or overflow (store).
//
// Glossary and invariants:
//
//   - Magazine
//
//     A fixed capacity stack of object handles.
//     Full when count == capacity, empty when count == 0.
//
//   - CPU store
//
//     A "loaded" and a "previous" magazine, both optional,
//     guarded by a lock scoped to that store.
//     Stores of different CPUs never synchronize with each other
//     on the fast path.
//
//   - Depot
//
//     A list of full magazines and a list of empty magazines,
//     guarded by one lock that is only taken to exchange magazines,
//     drain the depot, or change its limits.
//
//   - Exchange ("escalation")
//
//     Obtain: a store whose magazines are both empty trades its loaded
//     magazine for the head of the full list.
//     Store: a store whose magazines are both full trades its loaded
//     magazine for the head of the empty list, or for a freshly
//     allocated magazine while full + empty < max magazines.
//
//     Exchanges always trade the loaded magazine and never
//     fill the previous slot.
//     A workload that alternates stores and obtains across the edge
//     of a full magazine takes the depot lock on every crossing.
//
//   - Reclamation
//
//     Objects the depot cannot keep are handed to a [Reclaimer]:
//     on store overflow, and for every object found while draining.
//
// Ownership:
//
//   - Each magazine is owned by exactly one of: a CPU store slot,
//     the full list, or the empty list.
//
//   - Every stored object is either later returned by Obtain,
//     or passed exactly once to the reclaimer.
//
// Failure semantics:
//
//   - Obtain reporting false is an expected cache miss;
//     the caller constructs a fresh object.
//
//   - Store never fails; when the cache is saturated
//     the object is reclaimed synchronously.
//
//   - Precondition violations (pushing to a full magazine,
//     storing an object twice, ...) are only checked
//     when built with the depot_debug build tag, and panic.
//
// [Magazines and Vmem]: https://www.usenix.org/legacy/event/usenix01/full_papers/bonwick/bonwick.pdf
package depot
