// Package connectors provides implementations of the Source interface
// for the content sources a crawl job can read from. Each connector knows
// how to enumerate candidates and serve their content for one source type.
//
// Connectors are selected by the crawl command from the job settings.
package connectors
