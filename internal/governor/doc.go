// Package governor enforces per-provider call discipline: a rate limiter
// that honours remaining/reset quota headers with a safety margin, and task
// runners for strictly sequential or bounded-parallel execution.
package governor
