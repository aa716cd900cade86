// Package dataset reads farm records from CSV and writes records and
// neighbor reports back.
//
// The record format has a header row followed by one record per line:
//
//	id,soil_type,fertilizer_type,climate,humidity_level,pest_disease_management,plant_time,crop_harvested,water_temperature,harvest_colour,seed_supplier,season,distance_to_retailer,harvest_yield
//	1,Sandy,Organic,Tropical,72,Biological Control,Early Spring,Tomato,25C,Medium,GreenFields,Spring,130km,55%
//
// Numeric fields may carry a unit suffix (°C, C, km or %), which is ignored.
// Files ending in .zst or .lz4 are transparently (de)compressed.
package dataset
