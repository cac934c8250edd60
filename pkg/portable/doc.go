// Package portable converts graphs to and from a portable map-of-lists form.
//
// # Format
//
//	{
//	  "nodes": {
//	    "A": ["B", "C"],
//	    "B": ["C"],
//	    "C": []
//	  },
//	  "metadata": {
//	    "graph": {"graph": "calls"},
//	    "nodes": {"A": {"file": "a.go", "line": 3}},
//	    "edges": {"A -> B": {"conditional": true}}
//	  }
//	}
//
// Every node is a key of "nodes", isolated nodes included. The edge set is
// exactly the set of (key, successor) pairs, so it round-trips: reading the
// output of [Write] yields a graph with the same nodes and edges. List order
// is not significant on input and sorted on output.
//
// The form is used to cache analysis inputs between runs, to persist
// sessions, and to hand graphs to renderers and API clients.
//
// # Validation
//
// [ToGraph] rejects inconsistent data with a MALFORMED_DATA error instead of
// silently repairing it. Numbers in metadata decode as float64, as usual for
// encoding/json.
package portable
