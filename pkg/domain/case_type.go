package domain

import "fmt"

// CaseType classifies an investigation for retention purposes. Retention
// policies are keyed by case type, so the set is closed.
//
// Construct via ParseCaseType at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type CaseType string

const (
	CaseTypeFraud            CaseType = "FRAUD"
	CaseTypeRansomware       CaseType = "RANSOMWARE"
	CaseTypePhishing         CaseType = "PHISHING"
	CaseTypeIdentityTheft    CaseType = "IDENTITY_THEFT"
	CaseTypeChildSafety      CaseType = "CHILD_SAFETY"
	CaseTypeNetworkIntrusion CaseType = "NETWORK_INTRUSION"
)

var caseTypes = map[CaseType]struct{}{
	CaseTypeFraud:            {},
	CaseTypeRansomware:       {},
	CaseTypePhishing:         {},
	CaseTypeIdentityTheft:    {},
	CaseTypeChildSafety:      {},
	CaseTypeNetworkIntrusion: {},
}

// ParseCaseType validates and returns a CaseType.
func ParseCaseType(s string) (CaseType, error) {
	ct := CaseType(s)
	if _, ok := caseTypes[ct]; !ok {
		return "", fmt.Errorf("unknown case type: %s", s)
	}
	return ct, nil
}

func (ct CaseType) String() string { return string(ct) }

// CaseTypes returns all supported case types.
func CaseTypes() []CaseType {
	return []CaseType{
		CaseTypeFraud,
		CaseTypeRansomware,
		CaseTypePhishing,
		CaseTypeIdentityTheft,
		CaseTypeChildSafety,
		CaseTypeNetworkIntrusion,
	}
}
