// package models defines the data model for playback delivery and
// multi-device coordination: stream descriptors produced by resolution,
// device rows shared through the row store, and the remote-control
// command vocabulary.
package models
