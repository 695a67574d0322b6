// Package codecstats tracks running frame-extraction statistics per video
// codec: mean extraction time, sample count, and success rate. The Tracker
// is an injected component rather than a package-level singleton so it can
// be constructed per process and reset in tests.
package codecstats
