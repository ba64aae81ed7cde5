/*
Package ports defines the driven ports (interfaces) of the plan runner.

# Key Interfaces

  - Executor: performs the work of a single task.
  - Locker: serializes runs of the same plan, in process or across machines.

The tests subpackage holds contract suites every adapter must pass.
*/
package ports
