// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package profile defines the security profile data model shared by the
// detection pipeline, the trust engine and the escalation engine, plus the
// stores that persist it.
package profile

// Severity ranks how serious a single violation is, 1..5 ordinal.
type Severity int

const (
	SeverityMinor    Severity = 1
	SeverityModerate Severity = 2
	SeveritySerious  Severity = 3
	SeveritySevere   Severity = 4
	SeverityCritical Severity = 5
)

// String returns the lowercase severity name used in logs, metrics and
// stored records.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySerious:
		return "serious"
	case SeveritySevere:
		return "severe"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether the severity is in the defined range.
func (s Severity) Valid() bool {
	return s >= SeverityMinor && s <= SeverityCritical
}

// ViolationType identifies the detector family that produced a violation.
type ViolationType string

const (
	ViolationSpam            ViolationType = "spam"
	ViolationRepeatedContent ViolationType = "repeated_content"
	ViolationCapsAbuse       ViolationType = "caps_abuse"
	ViolationMentionSpam     ViolationType = "mention_spam"
	ViolationToxicity        ViolationType = "toxicity"
	ViolationHarassment      ViolationType = "harassment"
	ViolationThreat          ViolationType = "threat"
	ViolationHateSpeech      ViolationType = "hate_speech"
	ViolationMaliciousLinks  ViolationType = "malicious_links"
	ViolationPhishing        ViolationType = "phishing"
	ViolationDistress        ViolationType = "emotional_distress"
)

// Valid reports whether the violation type is one of the defined values.
func (t ViolationType) Valid() bool {
	switch t {
	case ViolationSpam, ViolationRepeatedContent, ViolationCapsAbuse,
		ViolationMentionSpam, ViolationToxicity, ViolationHarassment,
		ViolationThreat, ViolationHateSpeech, ViolationMaliciousLinks,
		ViolationPhishing, ViolationDistress:
		return true
	}
	return false
}

// Punitive reports whether this violation type may escalate punishment.
// Emotional distress routes to supportive handling instead.
func (t ViolationType) Punitive() bool {
	return t != ViolationDistress
}

// primaryPriority orders violation types for primary selection when two
// violations tie on severity. Higher wins the tie.
var primaryPriority = map[ViolationType]int{
	ViolationDistress:        0,
	ViolationHateSpeech:      1,
	ViolationThreat:          1,
	ViolationPhishing:        2,
	ViolationMaliciousLinks:  3,
	ViolationHarassment:      4,
	ViolationToxicity:        4,
	ViolationSpam:            5,
	ViolationRepeatedContent: 5,
	ViolationCapsAbuse:       6,
	ViolationMentionSpam:     6,
}

// PrimaryPriority returns the tie-break rank for primary-violation
// selection. Distress is always lowest so it can never become primary next
// to any other finding.
func (t ViolationType) PrimaryPriority() int {
	return primaryPriority[t]
}
