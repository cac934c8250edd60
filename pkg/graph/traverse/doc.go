// Package traverse provides breadth-first and depth-first traversal,
// shortest paths and simple-path enumeration over a [graph.Graph].
//
// All algorithms take successors in sorted order, so their output is
// deterministic for a fixed graph. Enumeration uses an explicit stack rather
// than recursion. Depth, path-count and path-length limits act as bounded-work
// circuit breakers; there is no wall-clock timeout inside the algorithms.
//
// Unknown start or target nodes fail with a NOT_FOUND error. An unreachable
// target is not an error: the result is simply empty.
package traverse
