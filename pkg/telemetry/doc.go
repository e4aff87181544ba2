// Package telemetry publishes the per-second core statistics of a board.
//
// A Publisher runs as a CMT client on one core: a Sleep callback samples
// the status of both cores, encodes a StatusReport and hands the frame to
// the Sinks outside of the dispatch loop.
package telemetry
