// Package pvzkit provides a trainer for Plants vs. Zombies.
//
// APIs are separated into subpackages, and documented accordingly.
// Package trainer is the entry point: it attaches to the game, resolves
// its build through package profile, and implements the trainer's
// features on top of packages memory, hack, asmkit and inject.
//
// For scripting convenience, "OrExit" functions and methods are provided.
// Any errors encountered by these functions are treated as fatal. In such
// cases, an exit handler function is invoked.
package pvzkit
