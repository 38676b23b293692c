// Package fallback implements ordered multi-model execution.
//
// An Engine attempts the models of a Request strictly in order and returns
// the first successful completion. Every failure, including an unknown model
// key, is recorded as an Attempt and the next model is tried. When every
// model fails the Result reports "All N models failed" with the full attempt
// history. Execute never returns an error.
package fallback

//go:generate mockgen -source=fallback.go -destination=../../mocks/mockfallback/fallback_mock.gen.go -package mockfallback
