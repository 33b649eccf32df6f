package config

import "aqicli/pkg/contracts"

// Application constants
const (
	AppName    = "aqicli"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (AQ_LOGGING_LEVEL, ...)
	EnvPrefix = "AQ"

	DatePolicyStrict  = "strict"
	DatePolicyLenient = "lenient"

	DefaultRegistryFile   = "ChinaAQIPoints.xlsx"
	DefaultEnrichedFile   = "ChinaAQIPoints_Updated.xlsx"
	DefaultPartitionInput = "china_aqi.geojson"
	DefaultPartitionDir   = "output"
	DefaultNamePrefix     = "ChinaAQI"
	DefaultLayerPrefix    = "ChinaAQIPoints_Updated"
	DefaultFileSuffix     = "_average"
	DefaultStoreTable     = "station_monthly_averages"

	StationFileExt = ".csv"
	GeoJSONExt     = ".geojson"
)
