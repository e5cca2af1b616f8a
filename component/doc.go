// Package component defines the lifecycle interface shared by the parts of
// the server and a registry that starts them in order and stops them in
// reverse.
//
// BaseLazyComponent defers expensive setup, such as loading a speech model,
// until the first call that needs it.
package component
