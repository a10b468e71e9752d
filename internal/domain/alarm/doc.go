// Package alarm contains the value types exchanged between the alarm
// manager and the emitters.
//
// It defines the fault kinds, the raise/clear Decision, the DeviceIdentity
// with its "unresolved" sentinel, and the Alarm value with a Clone helper so
// emitters never share payload pointers with the manager.
package alarm
