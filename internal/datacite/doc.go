// Package datacite provides the minimal DataCite REST API client used to read
// and update DOI metadata.
//
// Fetch reads the lifecycle state and target URL of a DOI; Submit sends the
// minimal update payload computed by the doi package and returns the record
// the authority reports afterwards. Requests use JSON:API media types and HTTP
// Basic authentication. Non-success responses surface as *RemoteError with the
// authority's body verbatim. Options allow tests to supply custom HTTP clients
// without modifying production code.
package datacite
