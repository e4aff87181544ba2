// Package rover is the application running on the two cores of the rover
// board: the hardware OS on core 0 and the drive control system on core 1.
//
// Both sides talk only through CMT messages. Core 0 owns the inputs
// (user switch, switch banks, rotary encoder) and turns their edges into
// messages for core 1; core 1 reacts to them.
package rover
