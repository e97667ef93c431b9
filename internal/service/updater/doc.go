// Package updater downloads and applies morning-alarm releases.
//
// It compares the installed daemon version and file checksums with the
// manifest published in the update folder, downloads changed artifacts to a
// temporary directory, replaces them in place with checksum verification and
// starts the daemon again. An update never interrupts a sounding alarm.
package updater
