// Package ws serves the UI event channel at /stream.
//
// The Hub is the OutputSink for every session created through the server:
// processed output is broadcast as
//
//	{"type":"terminal-output","session_id":"term_…","data":"…"}
//
// and the end of a session's output stream as
//
//	{"type":"terminal-closed","session_id":"term_…","error":"…"}
//
// Clients send {"type": "create"|"command"|"input"|"resize"|"close"|"ping", …};
// without a session_id the active session is targeted. Failures are answered
// with {"type":"error","message":…}.
package ws
