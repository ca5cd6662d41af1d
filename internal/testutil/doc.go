// Package testutil provides deterministic stand-ins for the engine's
// injectable collaborators: a fixed flow-token generator and a
// scripted concept invoker.
package testutil
