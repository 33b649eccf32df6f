// Package partition splits a feature collection that carries one property
// per month into one collection per month.
//
// Month columns are discovered on the first feature: a property counts when
// the segment after its last underscore parses as a month key, e.g.
// "ChinaAQIPoints_Updated_Jan2014". Each output feature keeps the geometry
// and a fixed set of base properties, plus Monthly_average. A month without
// a value becomes 0 here and only here.
//
// Writer.WriteAll stores every collection in its own file. Months are
// independent, so they are written by a bounded pool of goroutines.
package partition
