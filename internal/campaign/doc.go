// Package campaign verifies circuits on basis states across register widths.
//
// A Circuit declares its operation, its calling convention (a Shape), a
// classical Reference and the widths to sweep. The Runner turns every width
// into cases, exhaustively for small widths and by uniform sampling above,
// builds an engine program for each case through the Adapter, runs it in its
// own session round and compares the decoded registers with the reference.
// Failing cases are collected with the full input tuple and the seed needed
// to replay them; they never abort the rest of the campaign.
//
// Circuits that declare superposition widths are additionally checked with
// the superposition protocol.
package campaign
