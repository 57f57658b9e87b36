// Package domain defines the core business types for the campaign war room.
//
// Types in this package are pure value objects with no behavior beyond simple
// derivations, no database dependencies, and no HTTP concerns. They are the
// shared language between the dispatcher, the transports, the stores, and the
// API layer.
package domain
