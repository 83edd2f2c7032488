// Package domain models Bureau of Meteorology (BoM) forecast bulletins and
// extracts plain-text forecast excerpts from them.
//
// # Data Source
//
// Bulletins are published as XML on the BoM anonymous FTP server, e.g.
// ftp://ftp.bom.gov.au/anon/gen/fwo/IDT16000.xml for the Tasmanian public
// district forecasts. The file is replaced several times a day; the collector
// downloads it whole and hands the local copy to [ParseBulletin].
//
// # Document Shape
//
// Only a handful of paths are consumed; everything else is ignored:
//
//	product/amoc/issue-time-local        bulletin issue time, e.g. "2024-05-01T06:30:00+10:00"
//	//area[@description]                 forecast region, e.g. "Western", "Tasmania"
//	area/forecast-period[@index]          0 = today, 1 = tomorrow, ...
//	area/forecast-period[@start-time-local]
//	forecast-period/text[@type]           "forecast", "synoptic_situation", "precis", ...
//	//warning-summary                    document-wide advisory notice
//
// Area descriptions are not unique; lookups use the first match in document
// order. Missing elements, empty text and malformed per-period timestamps are
// expected and degrade to an omitted section rather than an error. Only a
// document that is not well-formed XML fails the extraction pass.
//
// # Time Format
//
// Local timestamps carry an explicit UTC offset. The BoM writes the offset
// with a colon ("+11:00"), but "+1100" and "Z" are accepted as well. See
// [ParseLocalTime].
//
// # Profiles
//
// A [Profile] selects the target area, the forecast-period policy and the
// ordered sections rendered into the excerpt. The built-in profiles cover the
// west-coast variants the collector has historically produced; more can be
// loaded from YAML with [LoadProfiles].
package domain
