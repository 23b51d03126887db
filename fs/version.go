package fs

// Version of davsync
var Version = "v0.3.0-DEV"
