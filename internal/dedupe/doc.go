// Package dedupe provides replay suppression for stream events using a
// time-based cache, so reconnecting streams do not apply events twice.
package dedupe
