// Package turtle provides the demo simulation surface: an in-memory
// turtlesim-style field of named turtles with poses and pen colors. It
// implements core.Surface and exists so the broker stack can be exercised
// end to end without a real simulator; rendering and physics are out of
// scope.
package turtle
