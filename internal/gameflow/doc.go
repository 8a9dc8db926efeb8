// Package gameflow turns the client's session event stream into recording
// lifecycle commands. The Monitor consumes decoded session payloads, tracks
// phase transitions through a small owned cache, and drives the recording
// controller so that no transition is missed and no action fires twice.
package gameflow
