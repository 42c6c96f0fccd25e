// Package feature connects independently built feature plugins to the
// host runtime.
//
// A plugin is started once through a Loader. It returns an Exports table
// naming its entry points; the loader binds the table to a typed Functions
// struct and rejects the plugin as incompatible when a required entry is
// missing or has the wrong signature. From then on the plugin is reached
// only through typed functions, never by name at call time.
//
// The Table maps each Feature to its begin and end evaluation callbacks.
// Dispatch runs begin, the host's backend work and end in order for one
// frame and viewport:
//
//	{unregistered} -Register-> {registered} -Dispatch-> {in flight} -end-> {registered}
//
// Plugins talk to each other only through the parameter store. A plugin
// offering shared data publishes a SharedDataFunc under SharedDataKey;
// others call GetSharedData.
package feature
