package version

// Current is the released version of the enricher binaries.
const Current = "0.1.0"
