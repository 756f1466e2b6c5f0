// Package watch keeps an open faceted project in step with edits made to its
// metadata document by other processes. Watcher reacts to file system events;
// Poller re-checks the modification stamp on a fixed interval for file
// systems where events are unreliable.
package watch
