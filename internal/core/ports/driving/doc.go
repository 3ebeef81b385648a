// Package driving provides interfaces for the application's entry points
// (primary/inbound ports). The surrounding web layer calls the core
// exclusively through these interfaces.
package driving
