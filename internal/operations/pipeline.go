package operations

// RegistryPipeline returns the steps of a processor run
func RegistryPipeline(deps *Dependencies) []Step {
	return []Step{
		NewLoadRegistryStep(deps),
		NewAggregateStep(deps),
		NewJoinStep(deps),
		NewExportRegistryStep(deps),
		NewExportGeoJSONStep(deps),
		NewStoreStep(deps),
		NewPartitionStep(deps),
	}
}

// PartitionPipeline returns the steps of a splitter run
func PartitionPipeline(deps *Dependencies) []Step {
	return []Step{
		NewLoadFeaturesStep(deps),
		NewPartitionStep(deps),
	}
}
