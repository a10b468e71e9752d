// Package platform maps OLT interface ids to port numbers and port type names.
package platform
