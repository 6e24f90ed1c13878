// Package shooter is the typed client of the camera-control application.
//
// Every call builds one request, sends it through an Exchanger and decodes
// the single reply. A reply with msg_result=false is returned as a normal
// response; only transport and decoding failures are errors.
package shooter
