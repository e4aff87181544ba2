// Package cmt provides cooperative multi-tasking across two cores.
package cmt

// Each core runs one dispatch loop (Core.Run) that pulls messages from a
// set of three bounded queues (High, Normal, Low) and hands them to the
// handlers registered for the message kind. A message is posted by value;
// the queue owns its copy until the loop dequeues it.
//
// A recurring tick (TickSource) counts down the scheduled-message table
// and broadcasts a low priority Housekeeping message every 16 ticks.
// Scheduled messages are claimed and cancelled from normal context under
// the table lock with the tick masked, while the tick itself only ever moves
// a slot from busy to free.
//
// Producer: device interrupt handlers, handlers running on either core
// Consumer: the owning core's dispatch loop
