// Package indication defines the decoded OLT indications consumed by the
// alarm manager: one struct per kind behind the Indication interface, and
// the three-valued Status every status field is decoded into.
package indication
