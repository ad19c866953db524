// Package events provides lifecycle events for the media submission pipeline.
//
// The scheduler publishes an event whenever a submission changes state or one
// of its media items settles. Handlers observe these events without being
// coupled to the scheduler, which keeps logging and metrics out of the
// pipeline's control flow.
//
// The primary components are:
// - LifecycleEvent: a single task or item transition
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
// - LoggingHandler: writes every event to a structured logger
package events
