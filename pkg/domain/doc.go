/*
Package domain contains the task graph model produced by the NeoForm compiler.

It is kept pure and free of I/O. Compilation, validation and execution live in
other packages and only exchange these types.

# Key Entities

  - Value: a literal string, a list of values or a Maven artifact coordinate.
  - Input: where a task reads something from (a direct value, a parameter,
    another task's output or a list of inputs).
  - Task: one unit of work. The set of task kinds is closed; AllTaskKinds
    enumerates it.
  - Argument: one element of a tool command line.
  - Config: the compiled graph, with its parameters and tasks keyed by name.
  - GraphError: a compilation or validation failure, matched with errors.Is
    against the Err* kinds.
*/
package domain
