// Package models holds the GORM row types backing the finance tables.
//
// Domain entities stay free of ORM tags; each model here carries the gorm
// annotations and a pair of mappers to and from its domain counterpart.
// Repositories work exclusively with these models and translate at the
// boundary, so schema details never leak into the domain layer.
package models
