// Command embyscan is the CLI and daemon entry point for the Emby
// library watcher.
package main
