package pmac

// Version is checked against the requires constraint of a config file.
const Version = "0.4.0"
