// Package audio owns the daemon's sound output.
//
// A Manager holds at most one live alarm handle and plays short task
// completion chimes on their own handles. Sounds are produced by a Device;
// the default ExecDevice hands WAV files to the operating system player.
// Assets come from a Loader that caches every successfully loaded source,
// including the synthesized builtin tones.
package audio
