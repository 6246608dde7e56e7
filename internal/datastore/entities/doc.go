// Package entities defines the GORM entity models for the bonsai collection schema.
//
// # Aggregate
//
//   - Tree: the aggregate root, numbered "BON-###"
//   - TreeUpdate: a work log entry carrying an optional girth measurement
//   - Photo: a stored image, at most one starred per tree
//   - Reminder: a dated maintenance reminder
//
// TreeUpdate, Photo and Reminder rows belong to exactly one Tree and are removed
// with it. Species rows are shared between trees and are never cascaded.
//
// # Auxiliary
//
//   - AppSetting: single row of application settings
package entities
