// Package crontab is the reconciliation engine: it parses a user's crontab
// into managed entries and preserved foreign lines, merges declared job
// specs on top, and serializes the result back as literal crontab text.
//
// Managed entries carry no native job ID, so identity is kept by a marker
// comment per entry ("# Puppet Name: <name>", preserved bit-for-bit from
// the original agent for compatibility with tables it generated) and, when
// the marker is lost, by a literal comparison of the rendered line.
//
// The engine holds per-user state in a Registry owned by a single
// Reconciler. Cycles for different users are independent; for one user the
// caller must not run two cycles at once.
package crontab
