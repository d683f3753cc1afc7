// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the medscan pipeline.
package types

import "strings"

// WordBox is a single OCR word annotation with the center of its bounding box.
// Coordinates are in image pixels, origin top-left.
type WordBox struct {
	Text string  `json:"text" yaml:"text"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// TextUnit is one OCR document: the extracted plain text, optionally
// accompanied by word-level bounding boxes when the OCR engine provides them.
// Word boxes are only needed for floor-stock table geometry; plain text is
// sufficient for label parsing.
type TextUnit struct {
	// Text is the full extracted text, lines separated by newlines.
	Text string `json:"text" yaml:"text"`

	// Words holds optional word annotations in OCR reading order.
	Words []WordBox `json:"words,omitempty" yaml:"words,omitempty"`
}

// CandidateSource identifies which stage produced a Candidate.
type CandidateSource string

const (
	SourceCascade CandidateSource = "cascade"
	SourceOracle  CandidateSource = "oracle"
	SourceTable   CandidateSource = "table"
)

// Candidate is one medication recovered from OCR text. It is immutable once
// produced; a candidate with an empty or invalid name never enters aggregation.
type Candidate struct {
	// Name is the generic medication name. Required.
	Name string `json:"name" yaml:"name"`

	// Brand is the parenthesized brand name, when present (e.g. "ZONEGRAN").
	Brand string `json:"brand,omitempty" yaml:"brand,omitempty"`

	// Strength is the free-text dose strength (e.g. "100 mg").
	Strength string `json:"strength,omitempty" yaml:"strength,omitempty"`

	// Form is the dosage form (e.g. "tablet", "capsule", "bag").
	Form string `json:"form,omitempty" yaml:"form,omitempty"`

	// SigCode is the frequency/administration shorthand (e.g. "BID", "Q8H").
	SigCode string `json:"sig,omitempty" yaml:"sig,omitempty"`

	// AdminPerDose is the units administered per dose (e.g. 0.5 for a
	// half-tablet). Zero means unknown; treated as 1 when calculating
	// 24-hour quantities.
	AdminPerDose float64 `json:"admin_per_dose,omitempty" yaml:"admin_per_dose,omitempty"`

	// Patient is the patient reference from a prescription label.
	Patient string `json:"patient,omitempty" yaml:"patient,omitempty"`

	// Floor is the floor/device code from a pick list (e.g. "8E-1").
	Floor string `json:"floor,omitempty" yaml:"floor,omitempty"`

	// MRN, RxNumber, and OrderNumber carry label identifiers when the
	// source text includes them.
	MRN         string `json:"mrn,omitempty" yaml:"mrn,omitempty"`
	RxNumber    string `json:"rx_number,omitempty" yaml:"rx_number,omitempty"`
	OrderNumber string `json:"order_number,omitempty" yaml:"order_number,omitempty"`

	// RawPick, RawMax, and RawCurrent are the table numbers recovered by the
	// numeric disambiguator. A nil RawPick means the pick amount could not be
	// determined and needs manual verification; it is never guessed.
	RawPick    *int `json:"raw_pick,omitempty" yaml:"raw_pick,omitempty"`
	RawMax     *int `json:"raw_max,omitempty" yaml:"raw_max,omitempty"`
	RawCurrent *int `json:"raw_current,omitempty" yaml:"raw_current,omitempty"`

	// Confidence scores how complete and corroborated the parse is, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Source records which stage produced this candidate.
	Source CandidateSource `json:"source,omitempty" yaml:"source,omitempty"`

	// Resolved is the catalog location attached by the resolver.
	Resolved Location `json:"location" yaml:"location"`
}

// Category partitions candidates into mutually exclusive groups. Floor
// presence takes absolute precedence: a candidate with both a floor and a
// patient reference is floor stock, never both.
type Category string

const (
	FloorStock   Category = "floor_stock"
	PatientLabel Category = "patient_label"
	Unclassified Category = "unclassified"
)

// Categorize returns the single category a candidate belongs to.
func (c Candidate) Categorize() Category {
	switch {
	case c.Floor != "":
		return FloorStock
	case c.Patient != "" || c.SigCode != "":
		return PatientLabel
	default:
		return Unclassified
	}
}

// LocationNotAssigned is the general-location sentinel for a candidate that
// matched nothing in the reference catalog. An unknown location is surfaced
// for manual lookup, never inferred.
const LocationNotAssigned = "NOT ASSIGNED"

// Location is a resolved storage location from the reference catalog.
type Location struct {
	// General is the area code (e.g. "PHRM", "FRIDGE"), or LocationNotAssigned.
	General string `json:"general" yaml:"general"`

	// Specific is the shelf/row/bin position within the general area.
	Specific string `json:"specific,omitempty" yaml:"specific,omitempty"`

	// Notes carries catalog annotations for the pharmacist.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Assigned reports whether the location came from the catalog.
func (l Location) Assigned() bool {
	return l.General != "" && l.General != LocationNotAssigned
}

// Key is the identity under which candidates are merged into one record.
type Key struct {
	Name     string
	Dose     string
	Form     string
	Location string
}

// KeyFor builds the aggregation key for a candidate.
func KeyFor(c Candidate) Key {
	return Key{
		Name:     strings.ToLower(strings.TrimSpace(c.Name)),
		Dose:     strings.ToLower(strings.ReplaceAll(c.Strength, " ", "")),
		Form:     strings.ToLower(strings.TrimSpace(c.Form)),
		Location: c.Resolved.General + "/" + c.Resolved.Specific,
	}
}

// Record is one aggregated output row. Exactly one record is emitted per
// aggregation key; it is immutable once built.
type Record struct {
	// Name, Dose, and Form identify the medication.
	Name string `json:"name" yaml:"name"`
	Dose string `json:"dose" yaml:"dose"`
	Form string `json:"form" yaml:"form"`

	// Category records which partition the merged candidates came from.
	Category Category `json:"category" yaml:"category"`

	// PickAmount is the total units to pick. Nil means at least one merged
	// candidate had an undetermined pick amount and the row needs manual
	// verification.
	PickAmount *int `json:"pick_amount" yaml:"pick_amount"`

	// CalculatedQty is the 24-hour quantity for patient labels. It may be
	// fractional per dose but the total is rounded up to whole units.
	CalculatedQty float64 `json:"calculated_qty,omitempty" yaml:"calculated_qty,omitempty"`

	// Location is the resolved storage location shared by the group.
	Location Location `json:"location" yaml:"location"`

	// Notes carries catalog annotations through to the output.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// FloorBreakdown maps floor code to quantity for floor-stock records.
	FloorBreakdown map[string]int `json:"floor_breakdown,omitempty" yaml:"floor_breakdown,omitempty"`

	// PatientBreakdown maps patient to quantity for patient-label records.
	PatientBreakdown map[string]float64 `json:"patient_breakdown,omitempty" yaml:"patient_breakdown,omitempty"`
}
