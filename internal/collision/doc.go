// Package collision finds contacts between spheres and against the ground plane.
//
// Detection runs in two phases. A [Broadphase] reduces the body set to
// candidate pairs whose bounding boxes overlap, then the narrowphase tests
// each candidate exactly and produces a [Contact].
//
// Output order is deterministic. Contacts are ordered by the lower slot
// index of their participants. For each body its ground contact comes
// first, followed by its pair contacts in ascending partner order.
package collision
