// Package zmq holds the request/reply connection to the camera-control
// application.
//
// A Conn owns one ZeroMQ REQ socket. Exchange sends one frame and blocks until
// the single matching reply arrives, so calls must never overlap.
package zmq
