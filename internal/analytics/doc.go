// Package analytics holds the pure computations behind the garage views:
// fuel efficiency, next-service prediction, trip risk simulation, fleet
// summaries, mileage ranks and alerts.
//
// None of the functions here perform I/O or keep state between calls.
// Insufficient data is reported with a nil result or a zero value, never an
// error, so callers can render an empty state instead of failing a view.
package analytics
