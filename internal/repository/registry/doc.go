// Package registry implements the child-device registry used to resolve
// ONU identities.
//
// MemoryRegistry indexes devices by parent id, parent port number and
// device-local ONU id; LoadFile and SaveFile persist it as YAML.
package registry
