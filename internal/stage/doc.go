// Package stage mirrors prebuilt runtime files into the binaries layout a
// packaged executable expects. Rules are resolved into (destination, source)
// pairs in a single synchronous pass and handed to a Sink, which either
// records them as runtime dependencies (Registry) or copies them right away
// (Copier).
package stage
