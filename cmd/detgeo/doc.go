// Command detgeo builds detector geometry from scripts and text files,
// places it into a scene, and persists runs to SQLite.
package main
