// Package models contains GORM persistence models for the koperasi ledger tables.
// Domain types in domain/ledger carry no ORM tags; the models here map rows to
// them through ToDomain.
package models
