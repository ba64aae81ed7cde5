/*
Package neoform compiles NeoForm toolchain descriptors into task graphs and
runs them.

A NeoForm archive is a zip file whose config.json declares, per
distribution, the steps that turn a vanilla Minecraft jar into remapped,
decompiled, patched and recompiled sources. Steps are either built-in
operations (downloads, stripping, injection, patching) or invocations of
external tools declared under "functions".

# Planning

An Engine compiles the descriptor into a domain.Config, a flat list of typed
tasks whose inputs reference parameters or the outputs of other tasks, and
validates it into a dependency order:

	eng := neoform.New(neoform.WithParchmentData("parchment.zip"))
	plan, err := eng.PlanFile("neoform-1.21.zip", "client")
	if err != nil {
		log.Fatal(err)
	}
	for _, name := range plan.Order {
		fmt.Println(name)
	}

Compilation and validation errors wrap the sentinels of package domain and
name the offending step, data key or task.

# Execution

A Runner walks a plan in order and hands each task to a ports.Executor. Runs
of the same plan are serialized through a ports.Locker. Tool tasks are
usually executed by a long-lived worker process driven by package daemon.
*/
package neoform
