/*
Package bridge drives an engine over a JSON-Lines stream, one message per line.

It is meant for a glasses host process that owns the microphone, the motion
sensor and the EHR client: the host sends finalized transcripts and motion
samples, the bridge answers with the parsed command and asks the host to
perform each intent, blocking until the host reports the outcome.

# Messages

Inbound (host to bridge):

	{"type":"transcript","text":"load patient 1 then show vitals","language":"en"}
	{"type":"sample","sample":{"at":"...","pitch_rate":2.5,"yaw_rate":0}}
	{"type":"finish","at":"..."}
	{"type":"display","action":"toggle"}
	{"type":"result","error":""}

A line that is not a JSON object is treated as a plain transcript.

Outbound (bridge to host): command, intent, report, gesture, display and error
events. See Event.
*/
package bridge
