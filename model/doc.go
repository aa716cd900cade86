// Package model defines the core types shared by the neighbor engines.
//
// # Identity
//
//   - ID: unique record identifier assigned by the loader, never reused.
//
// # Data Types
//
//   - Record: immutable farm record with categorical and numeric attributes
//   - Categorical: the nine enumerated attributes compared by equality
//   - Numeric: the four real-valued attributes
//   - Neighbor: a candidate record paired with its distance to a query
//
// # Constructing Records
//
//	rec, err := model.NewRecord(7,
//	    model.Categorical{SoilType: "Sandy", ...},
//	    model.Numeric{HumidityLevel: 60, WaterTemperature: 20, ...},
//	)
//
// Records are values. Two records with the same ID are the same logical entity.
package model
