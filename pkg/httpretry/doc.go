// Package httpretry provides the single HTTP-level retry policy shared by all
// provider clients: a bounded number of retries with exponential backoff on
// throttling and transient server statuses.
package httpretry
