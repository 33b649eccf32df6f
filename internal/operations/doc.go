// Package operations runs a pipeline of steps over a shared State.
//
// Manager executes registered steps in order. Each step runs in its own
// span, has its duration recorded and moves its StepState through
// pending, active and completed (or failed). The first failure stops the
// run and marks the remaining steps skipped. A step that implements
// Conditional may opt out, in which case it is skipped and the run goes on.
//
// Two pipelines are provided:
//
//	RegistryPipeline:  load registry → aggregate → join → export registry
//	                   → [export geojson] → [store] → [partition]
//	PartitionPipeline: load features → partition
package operations
