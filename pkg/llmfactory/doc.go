// Package llmfactory creates provider clients from configuration and caches
// one client per provider type. All clients share the HTTP retry policy.
package llmfactory
