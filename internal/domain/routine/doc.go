// Package routine holds the child roster model consumed by the alarm engine:
// children with their wake-up and bus times and their ordered task lists.
//
// The roster order is significant: it is the precedence order used when
// several children match an alarm condition in the same minute.
package routine
