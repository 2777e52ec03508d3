package internal

// Version is the current cardfill release version.
const Version = "0.3.0"
