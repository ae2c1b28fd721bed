// Package hooks adapts host hook payloads to gate events.
//
// Two payload shapes are accepted on stdin: the native form
// {event_type, target_path, content, session_id} and host tool hooks
// carrying hook_event_name and tool_input. Write tools become write events,
// configured hook names become the end-of-session sweep, and everything else
// is ignored.
package hooks
