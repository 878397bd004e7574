// Package access evaluates read/write permission against ownership, admin
// status and group overlap.
//
// Evaluate is a pure function over a UserContext and a ResourceContext; it
// performs no I/O. Policies supply the ResourceContext lookup for a given
// resource type so the engine never hard-codes a backing store.
package access
