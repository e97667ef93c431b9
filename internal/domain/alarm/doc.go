// Package alarm contains the alarm records shared by the engine, the API and
// the clients.
//
// It defines Type (wakeup, warning, departure), Alarm (a candidate or the
// active alarm) and Actor (who acted on an alarm through a client), with
// Clone helpers to avoid leaking internal references.
package alarm
