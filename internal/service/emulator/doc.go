// Package emulator implements shooter-emulator, a stand-in for the
// camera-control application.
//
// It answers GetCamera, EnableVideo and Download requests on a ZeroMQ REP
// socket, keeps per-camera recording state and writes placeholder clip files
// on download. Camera state survives restarts through a state repository.
package emulator
