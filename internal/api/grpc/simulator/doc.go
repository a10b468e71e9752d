// Package simulator exposes the alarm manager over gRPC.
//
// The IndicationService carries indications as google.protobuf.Struct
// messages shaped like the OLT control-channel fields, so tooling can inject
// them without generated stubs. Dispatch goes through the dispatcher,
// Simulate calls the handler directly and reports errors, and Watch streams
// every raise and clear the manager emits.
package simulator
