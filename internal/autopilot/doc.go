// Package autopilot implements the multi-phase enforcement core for omcc.
//
// An autopilot run drives one Claude Code session through a fixed sequence of
// phases (expansion, planning, execution, qa, validation) by intercepting the
// session's stop events. On every stop the controller loads the per-directory
// enforcement record, checks the session transcript for the current phase's
// completion marker, advances the phase when the marker is present, and
// either permits the stop or injects a continuation prompt that sends the
// session back to work.
//
// The package has four pieces, wired together by the controller:
//
//   - Store persists the enforcement record (one JSON file per working
//     directory, atomic overwrite).
//   - Detector searches transcript candidates for completion markers.
//   - Engine owns the phase successor table and the compound transitions
//     whose side effects may fail.
//   - Controller makes the allow-stop / inject-continuation decision.
//
// The controller is deliberately free of I/O beyond its collaborators so the
// decision logic is testable with a fake store and detector.
package autopilot
