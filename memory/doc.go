/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package memory implements the rules of a single-player memory matching
// game: deck construction, the turn state machine that resolves pairs of
// flips, the mismatch dismissal window and the elapsed-time clock.
//
// A Game never renders anything and never starts goroutines of its own.
// Output goes through a Presenter, and all deferred work (the mismatch
// auto-dismiss and the clock tick) is handed to a Scheduler, which is
// expected to run callbacks on the same goroutine that drives the Game.
package memory
