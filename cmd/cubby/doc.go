// Command cubby organizes files into category folders. It runs one-shot
// organization directly, and talks to a long-lived daemon over a unix socket
// for watched, scheduled, and remotely triggered runs.
package main
