// Package calendar_tools provides the MCP (Model Context Protocol) tools
// for Google Calendar operations.
//
// Six tools cover the adapter's surface: listing calendars, querying
// events by time window, the today/upcoming conveniences, creating
// Meet-conferenced events and cancelling events. Every tool returns the
// uniform result envelope as indented JSON text; in read-only mode the
// two write tools are not registered.
package calendar_tools
