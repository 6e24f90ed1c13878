// Package shooter contains the message model of the camera-control protocol
// and the recording phase machine driven by the client.
//
// Requests and responses are flat JSON objects. A request carries msg_type,
// msg_id and msg_seq_num plus the fields of its command. Every response
// carries msg_result, and msg_error when the command failed.
package shooter
