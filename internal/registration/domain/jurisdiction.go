package domain

import (
	"errors"
	"regexp"
	"strings"
)

// Jurisdiction identifies the regulator whose registry and number format apply.
// Known jurisdictions use their canonical display name; unknown ones keep the
// caller's spelling (whitespace-normalized) and skip the format pattern check.
type Jurisdiction string

const (
	JurisdictionMaharashtra   Jurisdiction = "Maharashtra"
	JurisdictionTamilNadu     Jurisdiction = "Tamil Nadu"
	JurisdictionKarnataka     Jurisdiction = "Karnataka"
	JurisdictionGujarat       Jurisdiction = "Gujarat"
	JurisdictionUttarPradesh  Jurisdiction = "Uttar Pradesh"
	JurisdictionDelhi         Jurisdiction = "Delhi"
	JurisdictionHaryana       Jurisdiction = "Haryana"
	JurisdictionKerala        Jurisdiction = "Kerala"
	JurisdictionTelangana     Jurisdiction = "Telangana"
	JurisdictionRajasthan     Jurisdiction = "Rajasthan"
	JurisdictionWestBengal    Jurisdiction = "West Bengal"
	JurisdictionPunjab        Jurisdiction = "Punjab"
	JurisdictionMadhyaPradesh Jurisdiction = "Madhya Pradesh"
)

// DefaultJurisdiction is used when a request does not name one.
const DefaultJurisdiction = JurisdictionMaharashtra

const maxJurisdictionLength = 64

// ErrInvalidJurisdiction indicates the jurisdiction string cannot be used as a key.
var ErrInvalidJurisdiction = errors.New("invalid jurisdiction: must be 1-64 letters, digits, spaces or hyphens")

var jurisdictionTextPattern = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)

type jurisdictionRule struct {
	code    string
	pattern *regexp.Regexp
	example string
}

// Patterns are matched against the normalized (uppercase) registration number.
var jurisdictionRules = map[Jurisdiction]jurisdictionRule{
	JurisdictionMaharashtra:   {code: "MH", pattern: regexp.MustCompile(`^[PA]\d{11}$`), example: "P51800012345"},
	JurisdictionTamilNadu:     {code: "TN", pattern: regexp.MustCompile(`^TN/\d{2}/(BUILDING|LAYOUT|AGENT)/\d{3,6}/\d{4}$`), example: "TN/29/Building/0123/2019"},
	JurisdictionKarnataka:     {code: "KA", pattern: regexp.MustCompile(`^PRM/KA/RERA/\d{4}/\d{3}/(PR|AG)/\d{6}/\d{6}$`), example: "PRM/KA/RERA/1251/446/PR/171015/000420"},
	JurisdictionGujarat:       {code: "GJ", pattern: regexp.MustCompile(`^(PR|AG)/GJ/[A-Z0-9/ ]+/[A-Z]{2,5}\d{5}/\d{6}$`), example: "PR/GJ/AHMEDABAD/AHMEDABAD CITY/AUDA/RAA01234/010119"},
	JurisdictionUttarPradesh:  {code: "UP", pattern: regexp.MustCompile(`^UPRERA(PRJ|AGT)\d{3,7}$`), example: "UPRERAPRJ12345"},
	JurisdictionDelhi:         {code: "DL", pattern: regexp.MustCompile(`^DLRERA\d{4}[PA]\d{4}$`), example: "DLRERA2019P0001"},
	JurisdictionHaryana:       {code: "HR", pattern: regexp.MustCompile(`^(RC/REP/HARERA/[A-Z]{3}/\d{3,4}/\d{4}/\d{1,4}|HRERA-[A-Z]{3}-[A-Z]{2,4}-\d{1,4}-\d{4})$`), example: "RC/REP/HARERA/GGM/379/2019/23"},
	JurisdictionKerala:        {code: "KL", pattern: regexp.MustCompile(`^K-RERA/(PRJ|AGT)/[A-Z]{3}/\d{3}/\d{4}$`), example: "K-RERA/PRJ/ERN/123/2021"},
	JurisdictionTelangana:     {code: "TG", pattern: regexp.MustCompile(`^[PA]\d{11}$`), example: "P02400001234"},
	JurisdictionRajasthan:     {code: "RJ", pattern: regexp.MustCompile(`^RAJ/[PA]/\d{4}/\d{3,5}$`), example: "RAJ/P/2019/1234"},
	JurisdictionWestBengal:    {code: "WB", pattern: regexp.MustCompile(`^WBRERA/[PA]/[A-Z]{3}/\d{4}/\d{6}$`), example: "WBRERA/P/NOR/2023/000123"},
	JurisdictionPunjab:        {code: "PB", pattern: regexp.MustCompile(`^PBRERA-[A-Z0-9]+-(PR|AG)\d{3,5}$`), example: "PBRERA-SAS80-PR0123"},
	JurisdictionMadhyaPradesh: {code: "MP", pattern: regexp.MustCompile(`^[PA]-[A-Z]{3}-\d{2}-\d{3,5}$`), example: "P-BPL-19-1234"},
}

// jurisdictionAliases maps lowercase names and state codes to canonical values.
var jurisdictionAliases = func() map[string]Jurisdiction {
	aliases := make(map[string]Jurisdiction, len(jurisdictionRules)*2+2)
	for j, rule := range jurisdictionRules {
		aliases[strings.ToLower(string(j))] = j
		aliases[strings.ToLower(rule.code)] = j
	}
	aliases["ts"] = JurisdictionTelangana
	aliases["nct of delhi"] = JurisdictionDelhi
	return aliases
}()

// ParseJurisdiction resolves a caller-supplied jurisdiction. Empty input yields
// DefaultJurisdiction. Names and two-letter codes of known regulators are
// matched case-insensitively; anything else that is safe to store is kept as
// an unknown jurisdiction.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	normalized := strings.Join(strings.Fields(s), " ")
	if normalized == "" {
		return DefaultJurisdiction, nil
	}
	if j, ok := jurisdictionAliases[strings.ToLower(normalized)]; ok {
		return j, nil
	}
	if len(normalized) > maxJurisdictionLength || !jurisdictionTextPattern.MatchString(normalized) {
		return "", ErrInvalidJurisdiction
	}
	return Jurisdiction(normalized), nil
}

// IsKnown reports whether a format rule exists for this jurisdiction.
func (j Jurisdiction) IsKnown() bool {
	_, ok := jurisdictionRules[j]
	return ok
}

// Code returns the two-letter state code, or "" for unknown jurisdictions.
func (j Jurisdiction) Code() string {
	return jurisdictionRules[j].code
}

func (j Jurisdiction) String() string {
	return string(j)
}

// KnownJurisdictions lists the jurisdictions with format rules.
func KnownJurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(jurisdictionRules))
	for j := range jurisdictionRules {
		out = append(out, j)
	}
	return out
}
