// Package storage is the object-storage collaborator.
//
// ObjectStore fetches objects by key into local scratch files and puts local
// files under a key. FilesystemStore serves a directory tree (useful for
// on-prem mounts and tests); HTTPStore talks to a REST object endpoint.
// AudioStager adapts a store to the transcription package's staging hook.
package storage
