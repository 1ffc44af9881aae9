// Package scheduling_tools provides MCP tools for multi-user meeting
// scheduling: scheduling a meeting end to end, fetching participant
// availability, resolving attendee references, and advising on conflicts.
package scheduling_tools
