// Package logger wraps zap for the shooter binaries.
//
// A global sugared logger writes console-formatted lines to stderr so that
// stdout stays free for the status tokens printed by the client. Services take
// a context and pull a named logger out of it (see WithName and WithKV).
package logger
