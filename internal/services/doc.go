// Package services holds cross-cutting service helpers: the sentinel error
// taxonomy used to classify failures from the LCU connection, frame decoding,
// and the recording device.
package services
